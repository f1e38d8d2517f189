package notifications

import (
	"context"
	"fmt"

	"github.com/mtlprog/taskflow/internal/events"
)

// Reactions turns events from other modules into notifications. Each
// reaction commits its own unit of work.
type Reactions struct {
	service *Service
}

// NewReactions creates a new Reactions.
func NewReactions(service *Service) *Reactions {
	return &Reactions{service: service}
}

// Subscribe registers every reaction on the bus.
func (r *Reactions) Subscribe(bus *events.Bus) error {
	if err := events.Subscribe(bus, "notifications.task_created", r.OnTaskCreated); err != nil {
		return err
	}
	if err := events.Subscribe(bus, "notifications.task_completed", r.OnTaskCompleted); err != nil {
		return err
	}
	return events.Subscribe(bus, "notifications.welcome", r.OnUserRegistered)
}

// OnTaskCreated tells the owner their task exists.
func (r *Reactions) OnTaskCreated(ctx context.Context, e events.TaskCreated) error {
	_, err := r.service.Notify(ctx, e.OwnerID,
		"New task created",
		fmt.Sprintf("Your task %q (priority %s) was created.", e.Title, e.Priority),
		TypeTaskCreated)
	return err
}

// OnTaskCompleted congratulates the owner.
func (r *Reactions) OnTaskCompleted(ctx context.Context, e events.TaskCompleted) error {
	_, err := r.service.Notify(ctx, e.OwnerID,
		"Task completed!",
		fmt.Sprintf("Congratulations! Your task %q is done.", e.Title),
		TypeTaskCompleted)
	return err
}

// OnUserRegistered welcomes a new user.
func (r *Reactions) OnUserRegistered(ctx context.Context, e events.UserRegistered) error {
	_, err := r.service.Notify(ctx, e.UserID,
		"Welcome to TaskFlow!",
		fmt.Sprintf("Hello %s, your account was created. Start by creating your first task!", e.FullName),
		TypeWelcome)
	return err
}
