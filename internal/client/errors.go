package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// genericErrorMessage はエラーレスポンスのボディが読めない場合に使うメッセージ。
const genericErrorMessage = "An unknown error occurred"

// Kind はエラーの大まかな分類を表す。
type Kind int

const (
	KindUnknown      Kind = iota // 上記以外（不正なエラーボディを含む）
	KindUnauthorized             // 認証情報なし・無効・期限切れ
	KindForbidden                // 認証済みだが権限がない（所有者ではない）
	KindNotFound                 // エンティティが存在しない
	KindConflict                 // 重複・制約違反
	KindBadRequest               // 入力値検証エラー
	KindUnavailable              // ネットワーク・通信エラー
)

// String はKindの名前を返す。
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error はDomain Clientのすべての操作が返す型付きエラー。
// 通信エラーもプロトコルエラーも、呼び出し元にはこの型だけが見える。
type Error struct {
	Kind    Kind
	Status  int    // HTTPステータス。ローカル検証・通信エラーでは0
	Code    string // サーバーが返したエラーコード（あれば）
	Message string // 利用者に表示できるメッセージ
	Err     error  // 原因となったエラー（あれば）
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf はerrの分類を返す。*Errorでないエラーは KindUnknown になる。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind はerrが指定した分類の*Errorかを返す。
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// errorBody はサーバーのエラーレスポンスボディ。
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// kindForStatus はHTTPステータスをKindに対応付ける。
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound, http.StatusGone:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// decodeError は2xx以外のレスポンスを*Errorに変換する。
// ボディが空・JSONでない・errorフィールドを持たない場合は汎用メッセージにフォールバックする。
// 分類はステータスから決め、ボディの内容には依存しない。
func decodeError(status int, body []byte) *Error {
	e := &Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: genericErrorMessage,
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return e
	}
	if msg := strings.TrimSpace(eb.Error); msg != "" {
		e.Message = msg
	}
	e.Code = eb.Code
	return e
}

// decodeSuccess は2xxレスポンスのボディをoutにデコードする。
// 204、空ボディ、outがnilの場合はデコードしない。
func decodeSuccess(status int, body []byte, out any) *Error {
	if out == nil || status == http.StatusNoContent || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Kind:    KindUnknown,
			Status:  status,
			Message: "the server returned a malformed response",
			Err:     err,
		}
	}
	return nil
}

// mapResponse はステータスとボディを操作結果に変換する唯一の関数。
// 成功時はoutにデコードしてnilを、失敗時は*Errorを返す。
func mapResponse(status int, body []byte, out any) *Error {
	if status >= 200 && status < 300 {
		return decodeSuccess(status, body, out)
	}
	return decodeError(status, body)
}

// newTransportError は通信レベルの失敗を KindUnavailable の*Errorに変換する。
func newTransportError(err error) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Message: "could not reach the server",
		Err:     err,
	}
}

// newValidationError はローカルの入力値検証エラーを生成する。往復は発生しない。
func newValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}
