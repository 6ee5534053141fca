package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (s *fakeSession) Claims() map[string][]int32 { return nil }
func (s *fakeSession) MemberID() string           { return "test-member" }
func (s *fakeSession) GenerationID() int32        { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Commit()                    {}
func (s *fakeSession) Context() context.Context   { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg)
}

func TestProcessBatchRetriesBounded(t *testing.T) {
	session := &fakeSession{ctx: context.Background()}
	msg := &sarama.ConsumerMessage{Topic: "topic-actions", Partition: 0, Offset: 7}

	attempts := 0
	logic := func(_ context.Context, _ *sarama.ConsumerMessage) error {
		attempts++
		return errors.New("storage down")
	}

	// 一直失败的消息在有限次重试后被跳过，位移照常前移
	processBatch(session, []*sarama.ConsumerMessage{msg}, logic)

	assert.Equal(t, maxRetries, attempts)
	assert.Len(t, session.marked, 1)
}

func TestProcessBatchSuccessStopsRetrying(t *testing.T) {
	session := &fakeSession{ctx: context.Background()}
	msg := &sarama.ConsumerMessage{Topic: "topic-actions", Partition: 0, Offset: 8}

	attempts := 0
	logic := func(_ context.Context, _ *sarama.ConsumerMessage) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}

	processBatch(session, []*sarama.ConsumerMessage{msg}, logic)

	assert.Equal(t, 3, attempts)
	assert.Len(t, session.marked, 1)
}
