package errno

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 0, Message: "Success"}

	ErrInvalidParam = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound     = &Errno{Code: 404, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}
	ErrStorage        = &Errno{Code: 502, Message: "Storage error"}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error"}

	// 业务错误码
	ErrMissingFile      = &Errno{Code: 20001, Message: "No file provided"}
	ErrFileNameIllegal  = &Errno{Code: 20002, Message: "File name is illegal"}
	ErrFileSizeIllegal  = &Errno{Code: 20003, Message: "File size is illegal"}
	ErrUploadError      = &Errno{Code: 20004, Message: "Upload error"}
	ErrCodecParamsRange = &Errno{Code: 20005, Message: "Codec parameters out of range"}

	// 任务相关错误码
	ErrJobNotFound       = &Errno{Code: 20008, Message: "Job not found"}
	ErrInvalidJobStatus  = &Errno{Code: 20009, Message: "Invalid job status"}
	ErrJobIDRequired     = &Errno{Code: 20010, Message: "Job ID is required"}
	ErrQueueFull         = &Errno{Code: 20012, Message: "Job queue is full"}
	ErrInvalidOperation  = &Errno{Code: 20013, Message: "Unknown operation"}
	ErrSchedulerStopped  = &Errno{Code: 20014, Message: "Job scheduler is not running"}
	ErrInputLocatorEmpty = &Errno{Code: 20015, Message: "Input locator is required"}

	// 文件记录相关错误码
	ErrFileRecordNotFound = &Errno{Code: 20020, Message: "File record not found"}
	ErrArtifactNotFound   = &Errno{Code: 20021, Message: "Artifact not found"}
)
