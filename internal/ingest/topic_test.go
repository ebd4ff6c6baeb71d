package ingest

import "testing"

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    Topic
		wantErr bool
	}{
		{
			name:  "plan topic",
			topic: "reallocation.pool-1.pending",
			want:  Topic{Kind: "reallocation", PoolID: "pool-1", StatusHint: "pending"},
		},
		{
			name:  "status hint may be anything",
			topic: "reallocation.pool-1.whatever",
			want:  Topic{Kind: "reallocation", PoolID: "pool-1", StatusHint: "whatever"},
		},
		{
			name:  "empty status hint allowed",
			topic: "reallocation.pool-1.",
			want:  Topic{Kind: "reallocation", PoolID: "pool-1", StatusHint: ""},
		},
		{name: "two segments", topic: "reallocation.pool-1", wantErr: true},
		{name: "four segments", topic: "reallocation.pool-1.pending.extra", wantErr: true},
		{name: "empty pool id", topic: "reallocation..pending", wantErr: true},
		{name: "empty kind", topic: ".pool-1.pending", wantErr: true},
		{name: "empty string", topic: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopic(tt.topic)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTopic(%q) = %+v, want error", tt.topic, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTopic(%q): %v", tt.topic, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTopic(%q) = %+v, want %+v", tt.topic, got, tt.want)
			}
		})
	}
}

func TestPlanTopicPattern(t *testing.T) {
	if got := PlanTopicPattern(); got != "reallocation.*.*" {
		t.Fatalf("pattern = %q", got)
	}
}

func TestReportTopic(t *testing.T) {
	if got := ReportTopic("pool-1", "partial"); got != "reallocation.pool-1.partial" {
		t.Fatalf("report topic = %q", got)
	}
	// The report topic must round-trip through the parser.
	parsed, err := ParseTopic(ReportTopic("pool-1", "success"))
	if err != nil {
		t.Fatalf("ParseTopic: %v", err)
	}
	if parsed.PoolID != "pool-1" || parsed.StatusHint != "success" {
		t.Fatalf("round trip = %+v", parsed)
	}
}
