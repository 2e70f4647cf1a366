package task

// Event 触发状态变更的事件
type Event string

const (
	// EventCreate 任务创建,不在转换表中,只出现在历史记录的第一条
	EventCreate   Event = "create"
	EventAssign   Event = "assign"
	EventUnassign Event = "unassign"
	EventStart    Event = "start"
	EventSubmit   Event = "submit"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventReopen   Event = "reopen"
	EventCancel   Event = "cancel"
)

// transitions 状态转换表
var transitions = map[Status]map[Event]Status{
	StatusAvailable: {
		EventAssign: StatusAssigned,
	},
	StatusAssigned: {
		EventAssign:   StatusAssigned,
		EventUnassign: StatusAvailable,
		EventStart:    StatusInProgress,
	},
	StatusInProgress: {
		EventSubmit: StatusUnderReview,
	},
	StatusUnderReview: {
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
	},
	StatusRejected: {
		EventReopen: StatusAssigned,
		EventCancel: StatusCancelled,
	},
}

// Next 返回事件作用于当前状态后的目标状态
func Next(from Status, event Event) (Status, bool) {
	to, ok := transitions[from][event]
	return to, ok
}

// CanTransition 判断两个状态之间是否存在一条边
func CanTransition(from, to Status) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Transition 校验并返回目标状态,不合法时返回 InvalidState
func Transition(from Status, event Event) (Status, error) {
	to, ok := Next(from, event)
	if !ok {
		return "", NewInvalidState("cannot %s task in status %s", event, from)
	}
	return to, nil
}
