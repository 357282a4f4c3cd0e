package estimation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/repository"
)

var validate = validator.New()

// Service handles estimation submissions and boards.
type Service struct {
	repo   Repository
	tasks  TaskRepository
	logger *slog.Logger
}

// NewService creates a new estimation service.
func NewService(repo Repository, tasks TaskRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, tasks: tasks, logger: logger}
}

// SubmitRequest is one user's pick for a task.
type SubmitRequest struct {
	TaskID string `validate:"required"`
	UserID string `validate:"required"`
	// Value is a card or free-form value such as "4h" or "1.5d".
	Value string `validate:"required"`
}

// Submit records the user's estimate, replacing an earlier one.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Estimation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	days, custom, err := ParseValue(req.Value)
	if err != nil {
		s.logger.Warn("rejected estimation", "task_id", req.TaskID, "user_id", req.UserID, "value", req.Value, "error", err)
		return nil, err
	}

	stored, err := s.repo.Upsert(ctx, &Estimation{
		TaskID:     req.TaskID,
		UserID:     req.UserID,
		Estimation: days,
		IsCustom:   custom,
	})
	if err != nil {
		return nil, fmt.Errorf("submitting estimation: %w", err)
	}

	s.logger.Debug("estimation submitted", "task_id", req.TaskID, "user_id", req.UserID, "days", days, "custom", custom)
	return stored, nil
}

// ListForTask returns every estimation of a task.
func (s *Service) ListForTask(ctx context.Context, taskID string) ([]Estimation, error) {
	list, err := s.repo.ListForTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing estimations: %w", err)
	}
	return list, nil
}

// Board assembles what viewerID sees for a task. Individual estimations and
// their statistics are revealed when the task shows estimations or the viewer
// owns the project; the count is always reported.
func (s *Service) Board(ctx context.Context, taskID, viewerID string) (*Board, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, task.ErrTaskNotFound
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}

	list, err := s.ListForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	board := &Board{
		Task:    t,
		IsOwner: t.OwnedBy(viewerID),
	}
	board.Visible = t.ShowEstimations || board.IsOwner

	for _, e := range list {
		if viewerID != "" && e.UserID == viewerID {
			board.Selected = e.Display()
		}
	}

	if board.Visible {
		board.Estimations = list
		board.Summary = Summarize(list)
	} else {
		board.Estimations = []Estimation{}
		board.Summary = Summary{Count: len(list)}
	}
	return board, nil
}
