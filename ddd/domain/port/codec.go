package port

import "f2v2f-service/ddd/domain/vo"

// ProgressSink 编解码过程中的进度回调。
// 在编解码调用所在线程上同步调用，不得阻塞，也不得重入编解码器。
// 同一次调用内 bytesProcessed 与 framesProcessed 单调不减。
type ProgressSink func(bytesProcessed, framesProcessed uint64, message string)

// CodecSession 独占的编解码会话句柄，Close 必须且只能调用一次
type CodecSession interface {
	Close() error
}

// CodecBridge 编解码引擎边界
type CodecBridge interface {
	CreateEncoder(params vo.CodecParams) (CodecSession, error)
	CreateDecoder(params vo.CodecParams) (CodecSession, error)
	Encode(session CodecSession, inputPath, outputPath string, sink ProgressSink) error
	Decode(session CodecSession, inputPath, outputPath string, sink ProgressSink) error
	// Container 返回编码产物的文件扩展名（含点）
	Container() string
	Version() string
}

// CodecFailure is implemented by bridge errors that carry a kind.
type CodecFailure interface {
	error
	ErrorKind() vo.ErrorKind
	// Detail 引擎提供的信息，没有时为该类型的默认描述
	Detail() string
}
