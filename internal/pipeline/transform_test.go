package pipeline

import (
	"strings"
	"testing"
)

func TestParseSnapshotDocumentStripsFences(t *testing.T) {
	raw := "```json\n{\"summary\":\"fenced\",\"architecture\":\"flat\"}\n```"
	doc, err := parseSnapshotDocument(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Summary != "fenced" || doc.Architecture != "flat" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestParseSnapshotDocumentFindsObjectInProse(t *testing.T) {
	raw := "Here is the snapshot you asked for: {\"summary\":\"in prose\"} hope it helps!"
	doc, err := parseSnapshotDocument(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Summary != "in prose" {
		t.Fatalf("unexpected summary %q", doc.Summary)
	}
}

func TestParseSnapshotDocumentHandlesBracesInStrings(t *testing.T) {
	raw := `{"summary":"uses {braces} and \"quotes\" inside","known_issues":"none"}`
	doc, err := parseSnapshotDocument(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !strings.Contains(doc.Summary, "{braces}") {
		t.Fatalf("unexpected summary %q", doc.Summary)
	}
}

func TestParseSnapshotDocumentRejectsProse(t *testing.T) {
	if _, err := parseSnapshotDocument("I cannot produce a document right now."); err == nil {
		t.Fatal("expected error for prose response")
	}
}

func TestParseSnapshotDocumentRejectsEmptyDocument(t *testing.T) {
	if _, err := parseSnapshotDocument("{}"); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestParseSnapshotDocumentRejectsUnbalancedObject(t *testing.T) {
	if _, err := parseSnapshotDocument(`{"summary":"truncated`); err == nil {
		t.Fatal("expected error for unbalanced object")
	}
}

func TestTruncateInputKeepsHead(t *testing.T) {
	head := "inventory first\n"
	long := head + strings.Repeat("x", maxTransformBytes)
	got := truncateInput(long)
	if len(got) != maxTransformBytes {
		t.Fatalf("expected %d bytes, got %d", maxTransformBytes, len(got))
	}
	if !strings.HasPrefix(got, head) {
		t.Fatal("truncation dropped the head instead of the tail")
	}
}

func TestTruncateInputLeavesSmallDigests(t *testing.T) {
	digest := "small digest"
	if got := truncateInput(digest); got != digest {
		t.Fatalf("expected unchanged digest, got %q", got)
	}
}
