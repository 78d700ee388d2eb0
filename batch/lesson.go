package batch

import (
	"context"
	"fmt"
)

// GenerateFunc 执行一次具体的生成调用。kind 标识生成类型
// （structure、content、artifact），artifacts 是本单元此前步骤的产物。
type GenerateFunc func(ctx context.Context, kind string, itemIndex int, artifacts map[string]string) (map[string]string, error)

// LessonUnit 把一节课的生成拆成批单元：先出课程结构，再逐条目
// 生成内容和配套素材。素材步骤排在内容之后，天然拿得到内容产物。
func LessonUnit(lessonID string, itemCount int, gen GenerateFunc) Unit {
	steps := []Step{{
		Name: "structure",
		Run: func(ctx context.Context, arts map[string]string) (map[string]string, error) {
			return gen(ctx, "structure", 0, arts)
		},
	}}

	for i := 1; i <= itemCount; i++ {
		idx := i
		steps = append(steps,
			Step{
				Name: fmt.Sprintf("item_%d_content", idx),
				Run: func(ctx context.Context, arts map[string]string) (map[string]string, error) {
					return gen(ctx, "content", idx, arts)
				},
			},
			Step{
				Name: fmt.Sprintf("item_%d_artifact", idx),
				Run: func(ctx context.Context, arts map[string]string) (map[string]string, error) {
					return gen(ctx, "artifact", idx, arts)
				},
			},
		)
	}

	return Unit{ID: lessonID, Steps: steps}
}
