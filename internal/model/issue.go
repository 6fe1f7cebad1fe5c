// Package model はドメインモデルを定義する。
package model

import "time"

// Issue は市民から報告された問題を表す。
// PhotoURLは任意（未指定の場合は空文字列）。
type Issue struct {
	ID           int64
	UserID       int64
	IssueType    string
	PhotoURL     string
	Location     string
	Status       IssueStatus
	DateReported time.Time
}

// IssueStatus は問題のライフサイクル状態を表す。
// 3値の閉じたドメインであり、これ以外の値は永続化されない。
type IssueStatus string

const (
	// IssueStatusOpen は未対応の状態。報告時に必ずこの値で作成される。
	IssueStatusOpen IssueStatus = "open"
	// IssueStatusInProgress は対応中の状態。
	IssueStatusInProgress IssueStatus = "in progress"
	// IssueStatusClosed は対応完了の状態。
	// 隣接制約は設けないため、closedからの再オープンも許可される。
	IssueStatusClosed IssueStatus = "closed"
)

// ValidIssueStatus は値がステータスドメインのメンバーかを判定する。
// メンバーシップのみを検証し、遷移順序の制約は課さない。
func ValidIssueStatus(s IssueStatus) bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusClosed:
		return true
	default:
		return false
	}
}
