package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/usecase"
)

// fetchSession requests the current session.
func fetchSession(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		out, err := c.GetSessionUseCase().Execute(context.Background(), struct{}{})
		if err != nil {
			return MsgSessionLoaded{Err: err}
		}
		return MsgSessionLoaded{Session: out.Session}
	}
}

// subscribeAuth opens the auth change subscription.
func subscribeAuth(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		sub, err := c.Identity.Subscribe(context.Background())
		if err != nil {
			return MsgAuthSubscribed{Err: domain.NewError(domain.KindAuth, "subscribe to auth changes", err)}
		}
		return MsgAuthSubscribed{Sub: sub}
	}
}

// waitForAuth blocks for the next auth change event.
func waitForAuth(sub domain.Subscription) tea.Cmd {
	return func() tea.Msg {
		for ev := range sub.Events() {
			if auth, ok := ev.(domain.AuthChangeEvent); ok {
				return MsgAuthEvent{Event: auth}
			}
		}
		return MsgAuthClosed{}
	}
}

// submitCredentials signs in or signs up.
func submitCredentials(c *app.Container, signUp bool, email, password string) tea.Cmd {
	return func() tea.Msg {
		in := usecase.CredentialsInput{Email: email, Password: password}
		if signUp {
			out, err := c.SignUpUseCase().Execute(context.Background(), in)
			if err != nil {
				return MsgCredentialsResult{Err: err, SignUp: true}
			}
			return MsgCredentialsResult{SignUp: true, Pending: out.Session == nil}
		}
		_, err := c.SignInUseCase().Execute(context.Background(), in)
		return MsgCredentialsResult{Err: err}
	}
}

// signOut terminates the session. The SIGNED_OUT event clears state.
func signOut(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		_, err := c.SignOutUseCase().Execute(context.Background(), struct{}{})
		return MsgSignedOut{Err: err}
	}
}

// listTasks fetches the full list for request seq.
func listTasks(ctx context.Context, c *app.Container, gen, seq uint64) tea.Cmd {
	return func() tea.Msg {
		out, err := c.ListTasksUseCase().Execute(ctx, usecase.ListTasksInput{})
		if err != nil {
			return MsgTasksLoaded{Err: err, Gen: gen, Seq: seq}
		}
		return MsgTasksLoaded{Tasks: out.Tasks, Gen: gen, Seq: seq}
	}
}

// watchInserts opens the insert subscription.
func watchInserts(ctx context.Context, c *app.Container, gen uint64) tea.Cmd {
	return func() tea.Msg {
		out, err := c.WatchTasksUseCase().Execute(ctx, struct{}{})
		if err != nil {
			return MsgWatchStarted{Err: err, Gen: gen}
		}
		return MsgWatchStarted{Sub: out.Subscription, Gen: gen}
	}
}

// waitForInsert blocks for the next insert or resync event.
func waitForInsert(sub domain.Subscription, gen uint64) tea.Cmd {
	return func() tea.Msg {
		for ev := range sub.Events() {
			switch ev := ev.(type) {
			case domain.InsertEvent:
				return MsgTaskInserted{Task: ev.Task, Gen: gen}
			case domain.ResyncEvent:
				return MsgWatchResynced{Gen: gen}
			}
		}
		return MsgWatchClosed{Gen: gen}
	}
}

func createTask(ctx context.Context, c *app.Container, gen uint64, in usecase.CreateTaskInput) tea.Cmd {
	return func() tea.Msg {
		out, err := c.CreateTaskUseCase().Execute(ctx, in)
		if err != nil {
			return MsgTaskCreated{Err: err, Gen: gen}
		}
		return MsgTaskCreated{Task: out.Task, Gen: gen}
	}
}

func updateTask(ctx context.Context, c *app.Container, gen uint64, in usecase.UpdateTaskInput) tea.Cmd {
	return func() tea.Msg {
		out, err := c.UpdateTaskUseCase().Execute(ctx, in)
		if err != nil {
			return MsgTaskUpdated{Err: err, Gen: gen}
		}
		return MsgTaskUpdated{Task: out.Task, Gen: gen}
	}
}

func deleteTask(ctx context.Context, c *app.Container, gen uint64, id int64) tea.Cmd {
	return func() tea.Msg {
		_, err := c.DeleteTaskUseCase().Execute(ctx, usecase.DeleteTaskInput{ID: id})
		return MsgTaskDeleted{Err: err, ID: id, Gen: gen}
	}
}
