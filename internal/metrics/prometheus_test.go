package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDeviceTransition(t *testing.T) {
	DeviceTransitionsTotal.Reset()

	RecordDeviceTransition("recycled")
	RecordDeviceTransition("recycled")
	RecordDeviceTransition("donated")

	count := testutil.ToFloat64(DeviceTransitionsTotal.WithLabelValues("recycled"))
	if count != 2 {
		t.Errorf("Expected recycled transition count = 2, got %f", count)
	}

	count = testutil.ToFloat64(DeviceTransitionsTotal.WithLabelValues("donated"))
	if count != 1 {
		t.Errorf("Expected donated transition count = 1, got %f", count)
	}
}

func TestRecordPointsCredited(t *testing.T) {
	PointsCreditedTotal.Reset()

	RecordPointsCredited("impact", 50)
	RecordPointsCredited("impact", 30)
	RecordPointsCredited("badge", 25)

	total := testutil.ToFloat64(PointsCreditedTotal.WithLabelValues("impact"))
	if total != 80 {
		t.Errorf("Expected impact points total = 80, got %f", total)
	}
}

func TestRecordCapacityRejection(t *testing.T) {
	before := testutil.ToFloat64(CapacityRejectionsTotal)

	RecordCapacityRejection()
	RecordCapacityRejection()

	after := testutil.ToFloat64(CapacityRejectionsTotal)
	if after-before != 2 {
		t.Errorf("Expected 2 new capacity rejections, got %f", after-before)
	}
}

func TestRecordSweepRun(t *testing.T) {
	SweepRunsTotal.Reset()

	RecordSweepRun("badge_evaluation", "success")
	RecordSweepRun("badge_evaluation", "error")

	count := testutil.ToFloat64(SweepRunsTotal.WithLabelValues("badge_evaluation", "success"))
	if count != 1 {
		t.Errorf("Expected 1 successful sweep run, got %f", count)
	}
}

func TestSetActiveBadgeHolders(t *testing.T) {
	SetActiveBadgeHolders("Eco Hero", 7)

	value := testutil.ToFloat64(ActiveBadgeHolders.WithLabelValues("Eco Hero"))
	if value != 7 {
		t.Errorf("Expected 7 badge holders, got %f", value)
	}
}
