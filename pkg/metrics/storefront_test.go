package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)
	metrics.ObserveDuration(OpCartSync, 250*time.Millisecond)
	metrics.IncOutcome(OpCartSync, OutcomeSuccess)
	metrics.IncOutcome(OpCartSync, OutcomeFailure)
	metrics.IncOutcome(OpCartSync, OutcomeFailure)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "burgnice_operation_total", map[string]string{"operation": OpCartSync, "outcome": OutcomeFailure}); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 2 {
		t.Fatalf("expected failure=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "burgnice_operation_duration_seconds", map[string]string{"operation": OpCartSync}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestTrackRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)

	done := metrics.Track(OpPaymentVerify)
	done(OutcomeUnpaid)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "burgnice_operation_total", map[string]string{"operation": OpPaymentVerify, "outcome": OutcomeUnpaid}); err != nil || got != 1 {
		t.Fatalf("expected unpaid=1, got %f (%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	metrics := NewStorefrontMetrics(nil)
	metrics.IncOutcome(OpCheckoutSubmit, OutcomeSuccess)
	metrics.ObserveDuration(OpCheckoutSubmit, time.Second)

	var nilMetrics *StorefrontMetrics
	nilMetrics.Track(OpCheckoutSubmit)(OutcomeSuccess)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
