package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"f2v2f-service/pkg/errno"
)

func TestFailedWithDataKeepsPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/api/encode", nil)

	FailedWithData(ctx, errno.NewBizError(errno.ErrQueueFull, nil), map[string]string{"job_id": "job-9"})

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Code int               `json:"code"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != errno.ErrQueueFull.Code || resp.Data["job_id"] != "job-9" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[*errno.Errno]int{
		errno.ErrJobNotFound:  http.StatusNotFound,
		errno.ErrQueueFull:    http.StatusServiceUnavailable,
		errno.ErrUnauthorized: http.StatusUnauthorized,
		errno.ErrInvalidParam: http.StatusBadRequest,
	}
	for no, want := range cases {
		if got := HTTPStatus(no); got != want {
			t.Fatalf("%s: status = %d, want %d", no.Message, got, want)
		}
	}
}
