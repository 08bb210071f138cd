// Package system holds process-level setup: file descriptor limits and a
// host snapshot logged at startup so capture runs can be correlated with
// the machine they ran on.
package system

import (
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// nofileTarget covers a capture session writing three channels per camera
// with previews enabled.
const nofileTarget = 2048

// InitResourceLimits raises RLIMIT_NOFILE towards nofileTarget. Failure is
// logged, not fatal; small sessions run fine under the default limit.
func InitResourceLimits(logger *zap.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("failed to read open file limit", zap.Error(err))
		return
	}
	if rLimit.Cur >= nofileTarget {
		return
	}

	rLimit.Cur = nofileTarget
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("failed to raise open file limit", zap.Error(err))
		return
	}
	logger.Debug("open file limit raised", zap.Uint64("limit", rLimit.Cur))
}

// LogHostInfo writes one line describing the host. Every probe is best
// effort; a container without /proc access just logs less.
func LogHostInfo(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("go", runtime.Version()),
		zap.Int("cpus", runtime.NumCPU()),
	}
	if info, err := host.Info(); err == nil {
		fields = append(fields,
			zap.String("hostname", info.Hostname),
			zap.String("os", info.Platform+" "+info.PlatformVersion),
			zap.String("kernel", info.KernelVersion))
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		fields = append(fields, zap.String("cpu", cpus[0].ModelName))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields, zap.Uint64("mem_total_mb", vm.Total/1024/1024))
	}
	logger.Info("host", fields...)
}
