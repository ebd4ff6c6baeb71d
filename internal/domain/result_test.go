package domain

import "testing"

func TestExecutionReportStatusTopic(t *testing.T) {
	tests := []struct {
		name    string
		report  ExecutionReport
		want    string
	}{
		{
			name: "all confirmed",
			report: ExecutionReport{
				Success: true,
				Results: []ActionResult{
					{Status: ActionConfirmed},
					{Status: ActionConfirmed},
				},
			},
			want: "success",
		},
		{
			name: "some confirmed before failure",
			report: ExecutionReport{
				Success: false,
				Results: []ActionResult{
					{Status: ActionConfirmed},
					{Status: ActionFailed},
				},
			},
			want: "partial",
		},
		{
			name: "nothing confirmed",
			report: ExecutionReport{
				Success: false,
				Results: []ActionResult{
					{Status: ActionFailed},
				},
			},
			want: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.StatusTopic(); got != tt.want {
				t.Errorf("StatusTopic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecutionReportConfirmedCount(t *testing.T) {
	report := ExecutionReport{
		Results: []ActionResult{
			{Status: ActionConfirmed},
			{Status: ActionFailed},
			{Status: ActionConfirmed},
			{Status: ActionSubmitted},
		},
	}
	if got := report.ConfirmedCount(); got != 2 {
		t.Errorf("ConfirmedCount() = %d, want 2", got)
	}
}
