package admin

import (
	"testing"
)

func TestStatusThresholds(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, StatusNormal},
		{79.9, StatusNormal},
		{80, StatusWarning},
		{89.9, StatusWarning},
		{90, StatusCritical},
		{100, StatusCritical},
	}
	for _, tc := range tests {
		if got := statusFor(tc.percent); got != tc.want {
			t.Errorf("statusFor(%v) = %q, want %q", tc.percent, got, tc.want)
		}
	}
}

func TestCPUAlerts(t *testing.T) {
	if alerts := cpuAlerts(50, 1, 4); len(alerts) != 0 {
		t.Fatalf("expected no alerts for idle CPU, got %v", alerts)
	}

	alerts := cpuAlerts(85.5, 1, 4)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Message != "CPU usage is high: 85.5%" {
		t.Errorf("unexpected message %q", alerts[0].Message)
	}
	if alerts[0].Level != StatusWarning {
		t.Errorf("unexpected level %q", alerts[0].Level)
	}

	alerts = cpuAlerts(95.2, 6.5, 4)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Message != "CPU usage is critically high: 95.2%" {
		t.Errorf("unexpected message %q", alerts[0].Message)
	}
	if alerts[0].Level != StatusCritical {
		t.Errorf("unexpected level %q", alerts[0].Level)
	}
	if alerts[1].Message != "Load average is high: 6.5 (cores: 4)" {
		t.Errorf("unexpected message %q", alerts[1].Message)
	}
}

func TestMemoryAlerts(t *testing.T) {
	if alerts := memoryAlerts(40, 10); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", alerts)
	}

	alerts := memoryAlerts(92.3, 55.1)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Message != "Memory usage is critically high: 92.3%" {
		t.Errorf("unexpected message %q", alerts[0].Message)
	}
	if alerts[1].Message != "Swap usage is high: 55.1%" {
		t.Errorf("unexpected message %q", alerts[1].Message)
	}

	alerts = memoryAlerts(85, 0)
	if len(alerts) != 1 || alerts[0].Message != "Memory usage is high: 85.0%" {
		t.Errorf("unexpected alerts %v", alerts)
	}
}

func TestDiskAlerts(t *testing.T) {
	if alerts := diskAlerts("/", 50); alerts != nil {
		t.Fatalf("expected no alerts, got %v", alerts)
	}

	alerts := diskAlerts("/data", 85.7)
	if len(alerts) != 1 || alerts[0].Message != "Disk /data is getting full: 85.7%" {
		t.Errorf("unexpected alerts %v", alerts)
	}
	if alerts[0].Level != StatusWarning {
		t.Errorf("unexpected level %q", alerts[0].Level)
	}

	alerts = diskAlerts("/", 95.1)
	if len(alerts) != 1 || alerts[0].Message != "Disk / is critically full: 95.1%" {
		t.Errorf("unexpected alerts %v", alerts)
	}
	if alerts[0].Level != StatusCritical {
		t.Errorf("unexpected level %q", alerts[0].Level)
	}
}

func TestByteConversions(t *testing.T) {
	if got := bytesToGB(1 << 30); got != 1 {
		t.Errorf("bytesToGB(1GiB) = %v, want 1", got)
	}
	if got := bytesToGB(3 * (1 << 29)); got != 1.5 {
		t.Errorf("bytesToGB(1.5GiB) = %v, want 1.5", got)
	}
	if got := bytesToMB(5 * (1 << 20)); got != 5 {
		t.Errorf("bytesToMB(5MiB) = %v, want 5", got)
	}
}

func TestRounding(t *testing.T) {
	if got := round1(3.14159); got != 3.1 {
		t.Errorf("round1 = %v", got)
	}
	if got := round2(3.14159); got != 3.14 {
		t.Errorf("round2 = %v", got)
	}
	rounded := roundSlice([]float64{1.26, 2.34})
	if rounded[0] != 1.3 || rounded[1] != 2.3 {
		t.Errorf("roundSlice = %v", rounded)
	}
}
