// Copyright 2026 fanjia1024
// Tests for the document ingest pipeline

package document

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-agent/internal/runtime/events"
)

// fakeVision 按文件内容回放 OCR 文本
type fakeVision struct {
	texts map[string]string
	err   error
}

func (f *fakeVision) ExtractText(ctx context.Context, imageData []byte, mime string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[string(imageData)], nil
}

func (f *fakeVision) Name() string { return "fake-vision" }

func newTestPipeline(v *fakeVision) (*Pipeline, *events.Bus) {
	bus := events.NewBus(64)
	return NewPipeline(NewExtractor(v), NewStore(), bus, nil), bus
}

func TestIngest_ImageReachesAwaitingEntry(t *testing.T) {
	ocr := "Coffee Corner Ltd\nRECEIPT\nDate: 2026-03-14\nTotal: $4.50"
	p, _ := newTestPipeline(&fakeVision{texts: map[string]string{"img-1": ocr}})

	recs, block := p.Ingest(context.Background(), "s1", []Attachment{
		{Filename: "receipt.jpg", MIME: "image/jpeg", Data: []byte("img-1")},
	})

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, StageAwaitingEntry, rec.CurrentStage())
	assert.Equal(t, KindReceipt, rec.Kind)
	assert.Equal(t, 4.50, rec.Fields.Amount)
	assert.Equal(t, "2026-03-14", rec.Fields.Date)

	// OCR 文本块拼入用户消息的固定格式
	assert.Contains(t, block, "[Document 1 OCR Text]")
	assert.Contains(t, block, "File: receipt.jpg")
	assert.Contains(t, block, "Type: receipt")
	assert.Contains(t, block, ocr)

	got, ok := p.Store().Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestIngest_FailureDoesNotBlockOthers(t *testing.T) {
	p, _ := newTestPipeline(&fakeVision{texts: map[string]string{"ok": "Invoice #1\nTotal: $10"}})

	recs, block := p.Ingest(context.Background(), "s1", []Attachment{
		{Filename: "broken.bin", MIME: "application/zip", Data: []byte("x")},
		{Filename: "inv.png", MIME: "image/png", Data: []byte("ok")},
	})

	require.Len(t, recs, 2)
	assert.Equal(t, StageFailed, recs[0].CurrentStage())
	assert.NotEmpty(t, recs[0].Error)
	assert.Equal(t, StageAwaitingEntry, recs[1].CurrentStage())

	// 失败附件不进消息块
	assert.NotContains(t, block, "broken.bin")
	assert.Contains(t, block, "[Document 2 OCR Text]")
}

func TestIngest_VisionOutageFailsRecord(t *testing.T) {
	p, _ := newTestPipeline(&fakeVision{err: errors.New("vision down")})

	recs, block := p.Ingest(context.Background(), "s1", []Attachment{
		{Filename: "r.jpg", MIME: "image/jpeg", Data: []byte("x")},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, StageFailed, recs[0].CurrentStage())
	assert.Empty(t, block)
}

func TestMarkCommitted_FromAwaitingEntry(t *testing.T) {
	p, bus := newTestPipeline(&fakeVision{texts: map[string]string{"img": "Receipt\nTotal: $5"}})
	ch, cancel := bus.Subscribe("s1")
	defer cancel()

	recs, _ := p.Ingest(context.Background(), "s1", []Attachment{
		{Filename: "r.jpg", MIME: "image/jpeg", Data: []byte("img")},
	})
	rec := recs[0]

	// 校验与写入在同一周期完成：Committed 自动补 Validated
	p.MarkCommitted(rec.ID, "ledger-key-1")
	assert.Equal(t, StageCommitted, rec.CurrentStage())
	assert.Equal(t, "ledger-key-1", rec.LedgerKey)

	var stages []string
	for len(ch) > 0 {
		ev := <-ch
		stages = append(stages, ev.Payload["stage"].(string))
	}
	assert.Equal(t, []string{"extracting", "fields_matched", "awaiting_entry", "validated", "committed"}, stages)
}

func TestMarkFailed(t *testing.T) {
	p, _ := newTestPipeline(&fakeVision{texts: map[string]string{"img": "Receipt\nTotal: $5"}})
	recs, _ := p.Ingest(context.Background(), "s1", []Attachment{
		{Filename: "r.jpg", MIME: "image/jpeg", Data: []byte("img")},
	})
	p.MarkFailed(recs[0].ID, "ledger rejected the entry")
	assert.Equal(t, StageFailed, recs[0].CurrentStage())
	assert.Equal(t, "ledger rejected the entry", recs[0].Error)
}
