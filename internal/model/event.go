package model

import (
	"fmt"
	"strings"
	"time"
)

// Event はユーザーが作成したイベントを表す。
// OwnerIDは作成者のユーザーIDで、作成後は変更されない。
type Event struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Attendee はユーザーとイベントの参加関係を表す。
// (UserID, EventID) の組はたかだか1件しか存在しない。
type Attendee struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	EventID   int64     `json:"eventId"`
	CreatedAt time.Time `json:"-"`
}

// dateLayouts はParseDateが受け付ける日時フォーマット。先頭から順に試す。
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate はイベント日時の文字列をtime.Timeに変換する。
// タイムゾーン指定のない形式はUTCとして解釈する。
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
