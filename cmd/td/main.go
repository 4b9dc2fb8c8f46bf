package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/domain"
	"taskdesk/internal/engine"
	"taskdesk/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "td",
	Short: "Taskdesk CLI",
	Long: `Taskdesk tracks assigned work across departments with a full audit trail.
- Users: SUPER_ADMIN runs the directory, DEPT_HEAD runs a department, EMPLOYEE does the work.
- Tasks: flow PENDING -> IN_PROGRESS -> SUBMITTED -> COMPLETED; a rejected review sends the task back to PENDING.
- History: every transition is recorded in an append-only ledger ('td task history').
- Edit window: the creator can edit or delete an untouched task for 5 minutes after creation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "acting user id (defaults to the seeded admin)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(deptCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(serveCmd())
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	conn, err := app.Open(ctx, workspace, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, engine.New(conn, cfg))
}

// actorID resolves the acting user, falling back to the seeded admin by
// username when no --actor-id is given.
func actorID(ctx context.Context, e engine.Engine) (string, error) {
	if id := strings.TrimSpace(viper.GetString("actor-id")); id != "" {
		return id, nil
	}
	u, err := e.Repo.GetUserByUsername(ctx, e.Config.Seed.AdminUsername)
	if err != nil {
		return "", fmt.Errorf("no --actor-id given and no seeded admin found: %w", err)
	}
	return u.ID, nil
}

func userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage the user directory"}
	user.AddCommand(userCreateCmd())
	user.AddCommand(userListCmd())
	user.AddCommand(userShowCmd())
	user.AddCommand(userDeleteCmd())
	user.AddCommand(userNotificationsCmd())
	user.AddCommand(userActiveCmd("activate", true))
	user.AddCommand(userActiveCmd("deactivate", false))
	return user
}

func userActiveCmd(verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <user-id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				return e.SetUserActive(ctx, actor, args[0], active)
			})
		},
	}
}

func userCreateCmd() *cobra.Command {
	var username, email, role, dept string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				u, err := e.CreateUser(ctx, engine.UserCreateOptions{
					ActorID:      actor,
					Username:     username,
					Email:        email,
					Role:         domain.Role(role),
					DepartmentID: dept,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "role (SUPER_ADMIN, DEPT_HEAD, EMPLOYEE)")
	cmd.Flags().StringVar(&dept, "department", "", "department id")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func userListCmd() *cobra.Command {
	var role, dept string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				items, err := e.ListUsers(ctx, actor, domain.Role(role), dept)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Username", "Email", "Role", "Department"})
				for _, u := range items {
					d := ""
					if u.DepartmentID != nil {
						d = *u.DepartmentID
					}
					tw.AppendRow(table.Row{u.ID, u.Username, u.Email, u.Role, d})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role filter")
	cmd.Flags().StringVar(&dept, "department", "", "department filter")
	return cmd
}

func userShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func userDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				return e.DeleteUser(ctx, actor, args[0])
			})
		},
	}
	return cmd
}

func userNotificationsCmd() *cobra.Command {
	var enabled bool
	cmd := &cobra.Command{
		Use:   "notifications <user-id>",
		Short: "Toggle email notifications for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				return e.SetNotificationPreference(ctx, actor, args[0], enabled)
			})
		},
	}
	cmd.Flags().BoolVar(&enabled, "enabled", true, "enable email notifications")
	return cmd
}

func deptCmd() *cobra.Command {
	dept := &cobra.Command{Use: "dept", Short: "Manage departments"}
	dept.AddCommand(deptCreateCmd())
	dept.AddCommand(deptListCmd())
	dept.AddCommand(deptShowCmd())
	dept.AddCommand(deptUpdateCmd())
	dept.AddCommand(deptDeleteCmd())
	return dept
}

func deptCreateCmd() *cobra.Command {
	var name, desc, head string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				d, err := e.CreateDepartment(ctx, engine.DepartmentCreateOptions{
					ActorID:     actor,
					Name:        name,
					Description: desc,
					HeadUserID:  head,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "department name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&head, "head", "", "head user id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func deptListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List departments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListDepartments(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Head"})
				for _, d := range items {
					head := ""
					if d.HeadUserID != nil {
						head = *d.HeadUserID
					}
					tw.AppendRow(table.Row{d.ID, d.Name, head})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func deptShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <department-id>",
		Short: "Show a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.GetDepartment(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	return cmd
}

func deptUpdateCmd() *cobra.Command {
	var name, desc, head string
	cmd := &cobra.Command{
		Use:   "update <department-id>",
		Short: "Rename a department or swap its head",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				opts := engine.DepartmentUpdateOptions{ActorID: actor, ID: args[0]}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				if cmd.Flags().Changed("head") {
					opts.HeadUserID = &head
				}
				d, err := e.UpdateDepartment(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&desc, "description", "", "new description")
	cmd.Flags().StringVar(&head, "head", "", "new head user id")
	return cmd
}

func deptDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <department-id>",
		Short: "Delete an empty department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				return e.DeleteDepartment(ctx, actor, args[0])
			})
		},
	}
	return cmd
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Tasks flow PENDING -> IN_PROGRESS -> SUBMITTED and end COMPLETED or back at PENDING after a rejected review. Every transition lands in the history ledger.",
	}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskStartCmd())
	task.AddCommand(taskSubmitCmd())
	task.AddCommand(taskReviewCmd())
	task.AddCommand(taskEditCmd())
	task.AddCommand(taskDeleteCmd())
	task.AddCommand(taskHistoryCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var title, desc, assignee, attachment string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and assign a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
					CreatorID:     actor,
					Title:         title,
					Description:   desc,
					AssigneeID:    assignee,
					AttachmentRef: attachment,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id")
	cmd.Flags().StringVar(&attachment, "attachment", "", "attachment reference")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("assignee")
	return cmd
}

func taskListCmd() *cobra.Command {
	var status, from, to string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks visible to the actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				tasks, err := e.ListTasksFor(ctx, actor, engine.ListTasksOptions{
					Status:      domain.TaskStatus(status),
					CreatedFrom: from,
					CreatedTo:   to,
					Limit:       limit,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Assignee", "Created"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.AssigneeID, t.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&from, "from", "", "created-after filter (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "created-before filter (RFC3339)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max results")
	return cmd
}

func taskShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				t, err := e.GetTask(ctx, args[0], actor)
				if err != nil {
					return err
				}
				if err := printJSONOrTable(t); err != nil {
					return err
				}
				if !viper.GetBool("json") {
					if last, err := e.Repo.LatestHistoryEntry(ctx, t.ID); err == nil {
						fmt.Printf("Last action: %s at %s by %s\n", last.Action, last.TS, last.ActorID)
					}
				}
				return nil
			})
		},
	}
	return cmd
}

func taskStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start a pending task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				t, err := e.StartTask(ctx, args[0], actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func taskSubmitCmd() *cobra.Command {
	var proof, message string
	cmd := &cobra.Command{
		Use:   "submit <task-id>",
		Short: "Submit a task for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				t, err := e.SubmitTask(ctx, args[0], actor, proof, message)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&proof, "proof", "", "proof file reference (required)")
	cmd.Flags().StringVar(&message, "message", "", "submission message")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}

func taskReviewCmd() *cobra.Command {
	var decision, comment string
	cmd := &cobra.Command{
		Use:   "review <task-id>",
		Short: "Accept or reject a submitted task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				t, err := e.ReviewTask(ctx, args[0], actor, engine.ReviewDecision(strings.ToUpper(decision)), comment)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&decision, "decision", "", "ACCEPT or REJECT")
	cmd.Flags().StringVar(&comment, "comment", "", "review comment")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func taskEditCmd() *cobra.Command {
	var title, desc, assignee, attachment string
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task within the edit window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				opts := engine.TaskEditOptions{ID: args[0], ActorID: actor}
				if cmd.Flags().Changed("title") {
					opts.Title = &title
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				if cmd.Flags().Changed("assignee") {
					opts.AssigneeID = &assignee
				}
				if cmd.Flags().Changed("attachment") {
					opts.AttachmentRef = &attachment
				}
				t, err := e.EditTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&desc, "description", "", "new description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "new assignee user id")
	cmd.Flags().StringVar(&attachment, "attachment", "", "new attachment reference")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete an untouched pending task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				return e.DeleteTask(ctx, args[0], actor)
			})
		},
	}
	return cmd
}

func taskHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show a task's history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				items, err := e.GetHistory(ctx, args[0], actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Action", "Actor", "Comment"})
				for _, h := range items {
					tw.AppendRow(table.Row{h.TS, h.Action, h.ActorID, h.Comment})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func statsCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Per-status task counts for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor, err := actorID(ctx, e)
				if err != nil {
					return err
				}
				stats, err := e.GetStats(ctx, actor, args[0], from, to)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Status", "Count"})
				tw.AppendRow(table.Row{"PENDING", stats.Pending})
				tw.AppendRow(table.Row{"IN_PROGRESS", stats.InProgress})
				tw.AppendRow(table.Row{"SUBMITTED", stats.Submitted})
				tw.AppendRow(table.Row{"COMPLETED", stats.Completed})
				tw.AppendFooter(table.Row{"Total", stats.Total})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "created-after filter (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "created-before filter (RFC3339)")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			conn, err := app.Open(cmd.Context(), workspace, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			e := engine.New(conn, cfg)
			if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") && cfg.Server.BasePath != "" {
				basePath = cfg.Server.BasePath
			}
			authCfg := server.AuthConfig{
				JWTSecret:              cfg.Server.JWTSecret,
				AllowLegacyActorHeader: cfg.Server.AllowLegacyActorHeader,
			}
			if s := os.Getenv("TASKDESK_JWT_SECRET"); s != "" {
				authCfg.JWTSecret = s
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("TASKDESK_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			server.StartWebhookDispatcher(e)
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Taskdesk API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
