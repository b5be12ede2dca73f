// Package policy はイベントと参加記録に対する操作可否を判定する。
//
// すべての関数は純粋関数で、状態を持たない。クライアントは往復前の
// 早期判定に、サーバーは最終的な権限判定に同じ関数を使う。
// userIDが0以下の場合は未認証（匿名）として扱う。
package policy

import "github.com/hitoshi/eventman/internal/model"

// IsAuthenticated はuserIDが認証済みユーザーを指すかを返す。
func IsAuthenticated(userID int64) bool {
	return userID > 0
}

// CanMutate はuserIDのユーザーがイベントを更新・削除できるかを返す。
// イベントの所有者のみがtrueになる。
func CanMutate(ev *model.Event, userID int64) bool {
	if ev == nil || !IsAuthenticated(userID) {
		return false
	}
	return ev.OwnerID == userID
}

// CanCreate はuserIDのユーザーがイベントを作成できるかを返す。
func CanCreate(userID int64) bool {
	return IsAuthenticated(userID)
}

// CanJoin はuserIDのユーザーがイベントに参加できるかを返す。
func CanJoin(userID int64) bool {
	return IsAuthenticated(userID)
}

// CanManageAttendance はactorIDのユーザーがtargetUserIDの参加記録を
// 追加・削除できるかを返す。
// 本人による参加・離脱と、所有者による参加者名簿の管理を許可する。
func CanManageAttendance(ev *model.Event, actorID, targetUserID int64) bool {
	if ev == nil || !IsAuthenticated(actorID) || !IsAuthenticated(targetUserID) {
		return false
	}
	if actorID == targetUserID {
		return true
	}
	return CanMutate(ev, actorID)
}
