package batch

import (
	"context"
	"sync"

	apperrors "novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/logger"
	"novel-trans-api/pkg/metrics"
)

// Job 一次排队的章节翻译
type Job struct {
	ProjectID string
	ChapterID string
	Force     bool
}

// Runner 调度器驱动的执行接口
type Runner interface {
	TranslateChapter(ctx context.Context, projectID, chapterID string, force bool) error
}

// Scheduler 串行批量调度器
// 章节按入队顺序一次一个地翻译，Stop 清空剩余队列。
// 串行是有意的：上游配额按分钟滑动窗口计，并发只会更快触发限流。
type Scheduler struct {
	runner Runner

	mu      sync.Mutex
	queue   []Job
	running bool
	cancel  context.CancelFunc
}

// NewScheduler 创建调度器
func NewScheduler(runner Runner) *Scheduler {
	return &Scheduler{runner: runner}
}

// Enqueue 追加一批任务并在需要时启动工作循环。
// 已在运行时返回已排队数量。
func (s *Scheduler) Enqueue(ctx context.Context, jobs []Job) (int, error) {
	if len(jobs) == 0 {
		return 0, apperrors.New(apperrors.CodeInvalidParam, "no jobs to enqueue")
	}

	s.mu.Lock()
	s.queue = append(s.queue, jobs...)
	queued := len(s.queue)
	if !s.running {
		s.running = true
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		metrics.BatchActive.Set(1)
		go s.run(runCtx)
	}
	s.mu.Unlock()

	return queued, nil
}

// Stop 清空排队任务。处理中的章节不被打断，跑完当前一章后循环自行退出。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
}

// Shutdown 进程退出时使用：清空队列并取消运行上下文，在途请求会被中断
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	if s.cancel != nil {
		s.cancel()
	}
}

// Pending 剩余排队数
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Active 是否在批量翻译中
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer logger.Info(ctx, "batch run finished")

	for {
		// 取队头；队列空了在同一把锁下退出，避免和 Enqueue 竞争丢任务
		s.mu.Lock()
		if len(s.queue) == 0 || ctx.Err() != nil {
			s.queue = nil
			s.running = false
			s.cancel = nil
			s.mu.Unlock()
			metrics.BatchActive.Set(0)
			return
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := s.runner.TranslateChapter(ctx, job.ProjectID, job.ChapterID, job.Force); err != nil {
			// 单章失败不终止整批
			logger.Warn(ctx, "batch chapter failed",
				"project_id", job.ProjectID,
				"chapter_id", job.ChapterID,
				"error", err.Error())
		}
	}
}
