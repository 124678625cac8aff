package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/samvad-hq/samvad-news-importer/internal/logger"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func sampleEvent() Event {
	return Event{
		Type:      EventArticleImported,
		Source:    "folha",
		ArticleID: "id-42",
		Slug:      "senado-aprova-lei",
		Title:     "Senado aprova nova lei de proteção de dados",
		Category:  "Política",
		Featured:  true,
	}
}

func TestAWSSQSSenderStandardQueue(t *testing.T) {
	client := &fakeSQSClient{}
	sender := &awsSQSSender{queueURL: "https://sqs.sa-east-1.amazonaws.com/1/imports", client: client, log: logger.NopLogger{}}

	if err := sender.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	in := client.input
	if aws.ToString(in.QueueUrl) != "https://sqs.sa-east-1.amazonaws.com/1/imports" {
		t.Fatalf("QueueUrl = %s", aws.ToString(in.QueueUrl))
	}
	for key, want := range map[string]string{"slug": "senado-aprova-lei", "category": "Política", "featured": "true", "source": "folha"} {
		attr, ok := in.MessageAttributes[key]
		if !ok || aws.ToString(attr.StringValue) != want || aws.ToString(attr.DataType) != "String" {
			t.Fatalf("attribute %s = %#v, want %q", key, attr, want)
		}
	}
	if in.MessageGroupId != nil || in.MessageDeduplicationId != nil {
		t.Fatalf("standard queues must not carry FIFO fields")
	}
	if !strings.Contains(aws.ToString(in.MessageBody), `"article_id":"id-42"`) {
		t.Fatalf("body missing article id: %s", aws.ToString(in.MessageBody))
	}
}

func TestAWSSQSSenderFIFOQueue(t *testing.T) {
	client := &fakeSQSClient{}
	sender := &awsSQSSender{queueURL: "https://sqs.sa-east-1.amazonaws.com/1/imports.fifo", client: client, log: logger.NopLogger{}}

	if err := sender.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(client.input.MessageGroupId) != "Política" || aws.ToString(client.input.MessageDeduplicationId) != "id-42" {
		t.Fatalf("unexpected FIFO fields %q %q", aws.ToString(client.input.MessageGroupId), aws.ToString(client.input.MessageDeduplicationId))
	}
}

func TestAWSSQSSenderSendError(t *testing.T) {
	sender := &awsSQSSender{queueURL: "https://q", client: &fakeSQSClient{err: errors.New("throttled")}, log: logger.NopLogger{}}
	if err := sender.Send(context.Background(), sampleEvent()); err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
