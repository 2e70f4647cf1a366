package task

import "math"

// ComputeEarnings 计算审核通过后的应付金额
// 质检任务同样计算,是否计入应付总额由调用方决定
func ComputeEarnings(hourlyRate, actualHours float64) float64 {
	return Round2(hourlyRate * actualHours)
}

// Round2 保留两位小数,四舍五入远离零
func Round2(v float64) float64 {
	// 先按 1e-9 精度规整,避免 2.675 这类二进制误差
	scaled := math.Round(v*100*1e6) / 1e6
	return math.Round(scaled) / 100
}
