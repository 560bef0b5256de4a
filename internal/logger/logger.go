package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log 全局日志实例；未调用 Init 时也可直接使用（默认 Info 级别输出到 stderr）
var Log = logrus.New()

// Init 根据级别与可选的日志文件初始化全局日志，控制台部分写到 stdout
func Init(levelStr string, filePath string) error {
	return InitTo(os.Stdout, levelStr, filePath)
}

// InitTo 同 Init，控制台部分写到 console
func InitTo(console io.Writer, levelStr string, filePath string) error {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 控制台 + 可选文件
	writers := []io.Writer{console}
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	Log.SetOutput(io.MultiWriter(writers...))

	return nil
}
