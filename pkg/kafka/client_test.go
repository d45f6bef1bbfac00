package kafka

import (
	"testing"

	"f2v2f-service/pkg/config"
)

func TestTopicConfigsSkipsEmptyAndDuplicates(t *testing.T) {
	got := topicConfigs([]string{"f2v2f.job.events", "", "f2v2f.job.requests", "f2v2f.job.events"})
	if len(got) != 2 {
		t.Fatalf("configs = %+v", got)
	}
	if got[0].Topic != "f2v2f.job.events" || got[1].Topic != "f2v2f.job.requests" || got[0].NumPartitions != 1 {
		t.Fatalf("configs = %+v", got)
	}
}

func TestOpenDoesNotDial(t *testing.T) {
	c := &Client{}
	if c.IsOpen() {
		t.Fatal("open before Open")
	}
	c.Open(config.KafkaConfig{BootstrapServers: []string{"127.0.0.1:1"}, ClientID: "f2v2f-test"})
	if !c.IsOpen() {
		t.Fatal("not open after Open")
	}
	if err := c.EnsureTopics("", ""); err != nil {
		t.Fatalf("no topics should be a no-op: %v", err)
	}
	w := c.Writer("events")
	if c.Writer("events") != w {
		t.Fatal("writer not cached")
	}
	msg := c.message([]byte("job-1"), []byte(`{}`))
	if string(msg.Key) != "job-1" || len(msg.Headers) != 2 || string(msg.Headers[1].Value) != "f2v2f-test" {
		t.Fatalf("message = %+v", msg)
	}
	c.Close()
}
