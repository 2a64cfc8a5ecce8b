package resolver

import (
	"fmt"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// 浏览器会话启动前的资源预检
// 无头Chrome在内存紧张的机器上会静默崩溃,提前拦截比事后排查省心

const (
	// minAvailableMemoryMB 启动浏览器所需的最小可用内存
	minAvailableMemoryMB = 512

	// cpuWarnPercent CPU占用告警阈值
	cpuWarnPercent = 90.0
)

// PreflightCheck 检查系统资源是否足以启动浏览器会话
// 内存不足返回错误,CPU高只告警不拦截
func PreflightCheck() error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		// 读不到指标不拦截,继续尝试启动
		utils.Warnf("读取内存指标失败: %v", err)
		return nil
	}

	availableMB := vm.Available / 1024 / 1024
	utils.Debugf("系统内存: 可用%dMB / 总量%dMB (占用%.1f%%)",
		availableMB, vm.Total/1024/1024, vm.UsedPercent)

	if availableMB < minAvailableMemoryMB {
		return fmt.Errorf("%w: 可用内存%dMB,至少需要%dMB",
			models.ErrLowMemory, availableMB, minAvailableMemoryMB)
	}

	percents, err := cpu.Percent(0, false)
	if err == nil && len(percents) > 0 && percents[0] > cpuWarnPercent {
		utils.Warnf("CPU占用%.1f%%,浏览器会话可能响应缓慢", percents[0])
	}

	return nil
}
