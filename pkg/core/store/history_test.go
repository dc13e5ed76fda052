package store

import (
	"context"
	"testing"
)

func TestHistoryRepo_NilPoolIsNoOp(t *testing.T) {
	repo := NewHistoryRepo(nil)

	id, err := repo.SaveExchange(context.Background(), "s1", "q", "a", "filing_search")
	if err != nil {
		t.Fatalf("SaveExchange with nil pool: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty for no-op save", id)
	}

	exchanges, err := repo.ListRecent(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("ListRecent with nil pool: %v", err)
	}
	if exchanges != nil {
		t.Errorf("exchanges = %v, want nil", exchanges)
	}
}

func TestFilingTextCache_FileFallback(t *testing.T) {
	cache := NewFilingTextCache(nil, t.TempDir())

	url := "https://www.sec.gov/Archives/edgar/data/1018724/amzn-20231231.htm"
	if _, ok := cache.Get(context.Background(), url); ok {
		t.Fatal("expected miss before save")
	}

	if err := cache.Save(context.Background(), url, "Net sales $574,785"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	text, ok := cache.Get(context.Background(), url)
	if !ok {
		t.Fatal("expected hit after save")
	}
	if text != "Net sales $574,785" {
		t.Errorf("text = %q", text)
	}
}
