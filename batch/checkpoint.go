package batch

import "context"

// UnitState 是单个工作单元的检查点：子步骤完成标记（只从未完成变为完成）
// 以及已完成步骤产出的标识符。
type UnitState struct {
	Done      map[string]bool   `json:"done"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

// NewUnitState 创建空的单元状态。
func NewUnitState() *UnitState {
	return &UnitState{Done: make(map[string]bool), Artifacts: make(map[string]string)}
}

// IsDone 报告某子步骤是否已完成。
func (u *UnitState) IsDone(step string) bool {
	return u != nil && u.Done[step]
}

// MarkDone 将子步骤标记为完成。标记只增不减。
func (u *UnitState) MarkDone(step string) {
	if u.Done == nil {
		u.Done = make(map[string]bool)
	}
	u.Done[step] = true
}

// Merge 合并子步骤产出的标识符。
func (u *UnitState) Merge(arts map[string]string) {
	if len(arts) == 0 {
		return
	}
	if u.Artifacts == nil {
		u.Artifacts = make(map[string]string)
	}
	for k, v := range arts {
		u.Artifacts[k] = v
	}
}

// ArtifactsCopy 返回产出标识符的副本，供步骤体只读使用。
func (u *UnitState) ArtifactsCopy() map[string]string {
	out := make(map[string]string, len(u.Artifacts))
	for k, v := range u.Artifacts {
		out[k] = v
	}
	return out
}

// State 是一个批任务的完整检查点：单元 ID 到单元状态的映射。
// 批启动时读取一次，之后每完成一个子步骤整体持久化一次；
// 并发单元写各自的键，last-write-wins 的整体落盘即可。
type State struct {
	Units map[string]*UnitState `json:"units"`
}

// NewState 创建空检查点。
func NewState() *State {
	return &State{Units: make(map[string]*UnitState)}
}

// Unit 返回（必要时创建）某单元的状态。
func (s *State) Unit(id string) *UnitState {
	if s.Units == nil {
		s.Units = make(map[string]*UnitState)
	}
	if u, ok := s.Units[id]; ok {
		return u
	}
	u := NewUnitState()
	s.Units[id] = u
	return u
}

// Store 是检查点持久化协作方。batchID 不存在时 Load 返回空状态而非错误。
type Store interface {
	Load(ctx context.Context, batchID string) (*State, error)
	Save(ctx context.Context, batchID string, st *State) error
}
