package xmeasure

// Holder 是配对 Enter/Leave 的作用域守卫。
//
// 绑定的 Measurer 可以为 nil，此时所有操作都是空操作——
// 用于在不改动埋点代码的前提下整体关闭测量。
// Holder 不拥有 Measurer，所有 Measurer 归 [Storage] 所有。
//
// 典型用法依赖 defer 的求值顺序：Hold(m) 立即执行并进入区间，
// Leave 在函数退出时执行（包括提前返回与 panic 传播），
// 保证区间在每条退出路径上都被关闭：
//
//	defer xmeasure.Hold(m).Leave()
type Holder struct {
	pm *Measurer
}

// Hold 绑定 Measurer 并立即进入区间。
func Hold(pm *Measurer) Holder {
	if pm != nil {
		pm.Enter()
	}
	return Holder{pm: pm}
}

// Bind 绑定 Measurer 但不进入区间，由调用方稍后显式 Enter。
func Bind(pm *Measurer) Holder {
	return Holder{pm: pm}
}

// Enter 进入（或从暂停恢复）区间。
func (h Holder) Enter() {
	if h.pm != nil {
		h.pm.Enter()
	}
}

// Pause 暂停区间，保留已累计的部分。
func (h Holder) Pause() {
	if h.pm != nil {
		h.pm.Pause()
	}
}

// Leave 关闭区间并提交统计。
func (h Holder) Leave() {
	if h.pm != nil {
		h.pm.Leave()
	}
}
