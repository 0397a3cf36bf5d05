package goAdmin

// SuccessCode is the envelope code of every successful response.
const SuccessCode = "200"

// SuccessMessage is the envelope message of every successful response.
const SuccessMessage = "success"

// Result is the JSON envelope every HTTP response is wrapped in.
type Result struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// Success wraps data in a success envelope.
func Success(data any) Result {
	return Result{Code: SuccessCode, Msg: SuccessMessage, Data: data}
}

// Fail builds the error envelope for err and returns it with the HTTP
// status to send.
func Fail(err error) (Result, int) {
	code := CodeOf(err)
	return FailWith(code), code.Status
}

// FailWith builds an error envelope for a known code.
func FailWith(code ErrorCode) Result {
	return Result{Code: code.Code, Msg: code.Message}
}

// IsSuccess reports whether r carries the success code.
func (r Result) IsSuccess() bool {
	return r.Code == SuccessCode
}
