package model

import "testing"

// ステータスドメインの3メンバーが受理されることを検証
func TestValidIssueStatus_Members(t *testing.T) {
	for _, s := range []IssueStatus{IssueStatusOpen, IssueStatusInProgress, IssueStatusClosed} {
		if !ValidIssueStatus(s) {
			t.Errorf("ValidIssueStatus(%q) = false, want true", s)
		}
	}
}

// ドメイン外の値が拒否されることを検証。
// 大文字小文字・区切り文字の揺れも暗黙に変換しない。
func TestValidIssueStatus_NonMembers(t *testing.T) {
	nonMembers := []IssueStatus{
		"",
		"archived",
		"OPEN",
		"Open",
		"in_progress",
		"inprogress",
		"in progress ",
		"done",
		"resolved",
	}
	for _, s := range nonMembers {
		if ValidIssueStatus(s) {
			t.Errorf("ValidIssueStatus(%q) = true, want false", s)
		}
	}
}

func TestIssueStatusConstants(t *testing.T) {
	if IssueStatusOpen != "open" {
		t.Errorf("IssueStatusOpen = %q, want %q", IssueStatusOpen, "open")
	}
	if IssueStatusInProgress != "in progress" {
		t.Errorf("IssueStatusInProgress = %q, want %q", IssueStatusInProgress, "in progress")
	}
	if IssueStatusClosed != "closed" {
		t.Errorf("IssueStatusClosed = %q, want %q", IssueStatusClosed, "closed")
	}
}
