package kafkax

import "testing"

func TestSplitBrokers(t *testing.T) {
	brokers := SplitBrokers(" kafka-1:9092, kafka-2:9092 ,,")
	if len(brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", brokers)
	}
	if brokers[0] != "kafka-1:9092" || brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", brokers)
	}
	if got := SplitBrokers(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
