package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

const sampleYAML = `
publishers:
  - id: " events-queue "
    type: QUEUE
    queue:
      provider: aws-sqs
      sqs:
        queue_url: https://sqs.ap-south-1.amazonaws.com/123/articles
        region: ap-south-1
  - id: hook
    type: webhook
    enabled: false
    webhook:
      url: ${HOOK_URL}
      headers:
        X-Token: secret
        "  ": ignored
`

func TestLoadConfigsYAML(t *testing.T) {
	t.Setenv("HOOK_URL", "https://example.com/hook")
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if len(set.All()) != 2 {
		t.Fatalf("entries = %d", len(set.All()))
	}

	q, ok := set.ByID("events-queue")
	if !ok || q.Type != TypeQueue || q.Queue.SQS.Region != "ap-south-1" {
		t.Fatalf("queue entry = %+v", q)
	}
	hook, ok := set.ByID("hook")
	if !ok {
		t.Fatal("hook missing")
	}
	if hook.Webhook.URL != "https://example.com/hook" || hook.Webhook.Method != "POST" {
		t.Errorf("webhook = %+v", hook.Webhook)
	}
	if len(hook.Webhook.Headers) != 1 {
		t.Errorf("headers = %v", hook.Webhook.Headers)
	}
	if hook.Webhook.Timeout() != webhookDefaultTimeout {
		t.Errorf("timeout = %v", hook.Webhook.Timeout())
	}

	enabled := set.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "events-queue" {
		t.Errorf("enabled = %+v", enabled)
	}
}

func TestParseConfigsJSON(t *testing.T) {
	data := `{"publishers":[{"id":"t","type":"queue","queue":{"provider":"gcp-pubsub","pubsub":{"project_id":"p","topic":"articles"}}}]}`
	set, err := ParseConfigs([]byte(data), ".json")
	if err != nil {
		t.Fatalf("ParseConfigs: %v", err)
	}
	cfg, _ := set.ByID("t")
	if cfg.Queue.PubSub.Topic != "articles" {
		t.Errorf("pubsub = %+v", cfg.Queue.PubSub)
	}
}

func TestParseConfigsRejects(t *testing.T) {
	cases := map[string]string{
		"empty":        "publishers: []",
		"no id":        "publishers:\n  - type: webhook\n    webhook: {url: https://x}",
		"no type":      "publishers:\n  - id: a",
		"unknown type": "publishers:\n  - id: a\n    type: carrier-pigeon",
		"bad url":      "publishers:\n  - id: a\n    type: webhook\n    webhook: {url: ftp://x}",
		"sqs no url":   "publishers:\n  - id: a\n    type: queue\n    queue: {provider: aws-sqs, sqs: {region: x}}",
		"half keys":    "publishers:\n  - id: a\n    type: queue\n    queue: {provider: aws-sns, sns: {topic_arn: arn, region: x, access_key_id: k}}",
		"pubsub topic": "publishers:\n  - id: a\n    type: queue\n    queue: {provider: gcp-pubsub, pubsub: {project_id: p}}",
		"azure":        "publishers:\n  - id: a\n    type: queue\n    queue: {provider: azure}",
		"duplicate":    "publishers:\n  - {id: a, type: webhook, webhook: {url: https://x}}\n  - {id: a, type: webhook, webhook: {url: https://y}}",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseConfigs([]byte(data), ".yaml"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := ParseConfigs([]byte("{}"), ".toml"); err == nil {
		t.Error("expected extension error")
	}
}

func sampleEvent() Event {
	ref := domain.PublishedArticleRef{ID: "a1", Title: "Rain", Slug: "rain", CategoryName: "Environment", Status: "publish"}
	art := domain.FormattedArticle{Excerpt: "Rain falls.", Keywords: "rain, monsoon, ,weather"}
	return NewArticleEvent(ref, art, time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC))
}

func TestNewArticleEvent(t *testing.T) {
	evt := sampleEvent()
	if evt.Type != EventArticlePublished || evt.ID == "" {
		t.Fatalf("event = %+v", evt)
	}
	if got := strings.Join(evt.Article.Keywords, "|"); got != "rain|monsoon|weather" {
		t.Errorf("keywords = %q", got)
	}
	if evt.attributes()["category"] != "Environment" {
		t.Errorf("attributes = %v", evt.attributes())
	}
}

func TestWebhookPublisher(t *testing.T) {
	var got Event
	var token, eventType string
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Token")
		eventType = r.Header.Get("X-Event-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	cfg := Config{ID: "hook", Type: TypeWebhook, Webhook: &WebhookConfig{URL: srv.URL, Method: "POST", Headers: map[string]string{"X-Token": "s3"}}}
	reg := DefaultRegistry(httpclient.NewRestyClient(5 * time.Second))
	pubs, err := BuildAll(context.Background(), reg, []Config{cfg}, nil)
	if err != nil || len(pubs) != 1 {
		t.Fatalf("BuildAll: %v", err)
	}

	evt := sampleEvent()
	if err := pubs[0].Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.ID != evt.ID || got.Article.Title != "Rain" || token != "s3" || eventType != EventArticlePublished {
		t.Errorf("delivered %+v token=%q type=%q", got, token, eventType)
	}

	status = http.StatusInternalServerError
	err = pubs[0].Publish(context.Background(), evt)
	if err == nil || !strings.Contains(err.Error(), "status 500: nope") {
		t.Errorf("err = %v", err)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("", func(context.Context, Config, Logger) (Publisher, error) { return nil, nil })
	if _, err := reg.Build(context.Background(), Config{ID: "x", Type: "webhook"}, nil); err == nil {
		t.Fatal("expected error for unregistered type")
	}
}

type fakeSQS struct{ in *sqs.SendMessageInput }

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.in = in
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

type fakeSNS struct{ err error }

func (f *fakeSNS) Publish(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return nil, f.err
}

func TestQueueSenders(t *testing.T) {
	fq := &fakeSQS{}
	pub := &queuePublisher{id: "q", provider: ProviderSQS, sender: &sqsSender{queueURL: "https://q", client: fq, log: ensureLogger(nil)}}
	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("sqs publish: %v", err)
	}
	if aws.ToString(fq.in.QueueUrl) != "https://q" || !strings.Contains(aws.ToString(fq.in.MessageBody), `"article.published"`) {
		t.Errorf("input = %+v", fq.in)
	}
	if aws.ToString(fq.in.MessageAttributes["status"].StringValue) != "publish" {
		t.Errorf("attributes = %+v", fq.in.MessageAttributes)
	}

	failing := &queuePublisher{id: "t", provider: ProviderSNS, sender: &snsSender{topicARN: "arn", client: &fakeSNS{err: errors.New("throttled")}, log: ensureLogger(nil)}}
	err := failing.Publish(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "aws-sns send failed") {
		t.Errorf("err = %v", err)
	}
}

type stubPublisher struct {
	id    string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return "stub" }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	a := &stubPublisher{id: "a", err: errors.New("down")}
	b := &stubPublisher{id: "b"}
	f := NewFanout([]Publisher{a, b}, nil)

	err := f.Publish(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "a: down") {
		t.Fatalf("err = %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls a=%d b=%d", a.calls, b.calls)
	}

	var nilFanout *Fanout
	if nilFanout.Publish(context.Background(), sampleEvent()) != nil || nilFanout.Len() != 0 {
		t.Error("nil fanout should be a no-op")
	}
}
