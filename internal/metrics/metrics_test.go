package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterDefaultIsIdempotent(t *testing.T) {
	RegisterDefault()
	RegisterDefault()

	InstancesGenerated.WithLabelValues("easy", "fleet").Inc()
	if got := testutil.ToFloat64(InstancesGenerated.WithLabelValues("easy", "fleet")); got < 1 {
		t.Fatalf("instances_generated_total = %v", got)
	}
	n, err := testutil.GatherAndCount(Registry, "instances_generated_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n == 0 {
		t.Fatal("instances_generated_total not exported")
	}
}
