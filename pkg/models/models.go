// Package models defines the wire types shared between the API client and
// the state stores. Field names and json tags follow the Taskwell REST API.
package models

// User is the authenticated identity returned by the API.
type User struct {
	ID          int     `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Role        string  `json:"role"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

// Todo is a single task item. IDs are server-assigned and immutable.
type Todo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int    `json:"owner_id"`
}

// AuthResponse is the body of a successful login. In cookie deployments the
// token fields are empty and the session rides on a server-set cookie.
type AuthResponse struct {
	OK          bool   `json:"ok,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// CreateTodoRequest is the payload for creating a task. Priority must be
// within 1..5; validation happens at the input boundary, not here.
type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
}

// UpdateTodoRequest is the payload for updating a task. The API's PUT
// endpoint replaces the full task body, so all fields are sent.
type UpdateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
}

// UpdateRequestFromTodo builds a full update payload from an existing task.
func UpdateRequestFromTodo(t Todo) UpdateTodoRequest {
	return UpdateTodoRequest{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Complete:    t.Complete,
	}
}

// ApplyUpdate merges an update payload into a task, preserving identity fields.
func ApplyUpdate(t Todo, patch UpdateTodoRequest) Todo {
	t.Title = patch.Title
	t.Description = patch.Description
	t.Priority = patch.Priority
	t.Complete = patch.Complete
	return t
}

// CreateUserRequest is the registration payload. Role is always set to
// "user" by the client before submission.
type CreateUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// UpdateUserRequest is a partial profile update. Nil fields are omitted.
type UpdateUserRequest struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

// ChangePasswordRequest carries a password rotation.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}
