package cqe

import (
	"errors"
	"strings"
	"testing"

	"f2v2f-service/pkg/errno"
)

func TestSubmitJobReqValidate(t *testing.T) {
	body := strings.NewReader("x")
	cases := []struct {
		name string
		req  SubmitJobReq
		want error
	}{
		{"ok upload", SubmitJobReq{Operation: "encode", FileName: "a.txt", Content: body}, nil},
		{"ok object", SubmitJobReq{Operation: "decode", FileName: "a.y4m", ObjectKey: "in/a.y4m"}, nil},
		{"bad operation", SubmitJobReq{Operation: "resize", FileName: "a", Content: body}, errno.ErrInvalidOperation},
		{"no input", SubmitJobReq{Operation: "encode", FileName: "a"}, errno.ErrMissingFile},
		{"no name", SubmitJobReq{Operation: "encode", Content: body}, errno.ErrFileNameIllegal},
		{"negative", SubmitJobReq{Operation: "encode", FileName: "a", Content: body, Width: -1}, errno.ErrCodecParamsRange},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.want == nil && err != nil || tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}
