package safe

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
)

// 堆栈最多保留的行数
const maxStackLines = 20

func Run(fn func()) {
	RunWithLog(fn, "safe.Run")
}

// RunWithLog 执行 fn, panic 时记录 component 与堆栈
func RunWithLog(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(component, r)
		}
	}()

	fn()
}

// Do 与 RunWithLog 相同, 但 panic 会转为 error 返回, 调用方可以继续处理其它步骤
func Do(component string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(component, r)
			err = fmt.Errorf("%s panic: %v", component, r)
		}
	}()

	return fn()
}

func logPanic(component string, r any) {
	slog.Error("panic recovered",
		slog.Any("recover", r),
		slog.String("component", component),
		slog.String("stack", stackTrace()),
	)
}

// stackTrace 跳过 debug.Stack 自身及 recover 相关的帧
func stackTrace() string {
	lines := strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
	if len(lines) > 1 {
		// goroutine 头 + debug.Stack + stackTrace + logPanic
		lines = lines[min(len(lines), 7):]
	}

	out := make([]string, 0, maxStackLines+2)
	out = append(out, "Stack trace:")
	for i, line := range lines {
		if i == maxStackLines {
			out = append(out, "  ... (truncated)")
			break
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, "  "+line)
		}
	}
	return strings.Join(out, "\n")
}
