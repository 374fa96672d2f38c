package workflow

import (
	"io"
	"time"
)

// Customer kinds.
const (
	CustomerIndividual = "individual"
	CustomerCompany    = "company"
)

// MinCustomerAge is the minimum age of an individual customer.
const MinCustomerAge = 18

// Customer is a party the organization does business with.
type Customer struct {
	ID        string    `json:"id" csv:"id"`
	Type      string    `json:"type" csv:"type"`
	Name      string    `json:"name" csv:"name"`
	Email     string    `json:"email" csv:"email"`
	Phone     string    `json:"phone,omitempty" csv:"phone"`
	Birthdate string    `json:"birthdate,omitempty" csv:"birthdate"`
	Address   string    `json:"address,omitempty" csv:"address"`
	CreatedAt time.Time `json:"createdAt" csv:"created_at"`
}

// CustomerInput creates or updates a customer. Birthdate is YYYY-MM-DD.
type CustomerInput struct {
	Type      string `json:"type" validate:"required,oneof=individual company"`
	Name      string `json:"name" validate:"required,max=128"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Birthdate string `json:"birthdate,omitempty" validate:"required_if=Type individual,omitempty,datetime=2006-01-02"`
	Address   string `json:"address,omitempty" validate:"omitempty,max=256"`
}

// Vendor supplies goods or services.
type Vendor struct {
	ID          string    `json:"id" csv:"id"`
	Name        string    `json:"name" csv:"name"`
	Email       string    `json:"email" csv:"email"`
	Phone       string    `json:"phone,omitempty" csv:"phone"`
	TaxID       string    `json:"taxId,omitempty" csv:"tax_id"`
	DocumentURL string    `json:"documentUrl,omitempty" csv:"document_url"`
	CreatedAt   time.Time `json:"createdAt" csv:"created_at"`
}

// Document is a file attached to a vendor.
type Document struct {
	Name    string
	Content io.Reader
}

// VendorInput creates or updates a vendor. Document is only sent on create.
type VendorInput struct {
	Name     string    `json:"name" validate:"required,max=128"`
	Email    string    `json:"email" validate:"required,email"`
	Phone    string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	TaxID    string    `json:"taxId,omitempty" validate:"omitempty,max=32"`
	Document *Document `json:"-" validate:"-"`
}

// Workgroup is a named set of users tasks can be routed to.
type Workgroup struct {
	ID          string   `json:"id" csv:"id"`
	Code        string   `json:"code" csv:"code"`
	Name        string   `json:"name" csv:"name"`
	Description string   `json:"description,omitempty" csv:"description"`
	Members     []string `json:"members,omitempty" csv:"-"`
}

// WorkgroupInput creates or updates a workgroup.
type WorkgroupInput struct {
	Code        string `json:"code" validate:"required,code,max=64"`
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description,omitempty" validate:"omitempty,max=512"`
}

// Role grants permissions to users.
type Role struct {
	ID          string   `json:"id" csv:"id"`
	Code        string   `json:"code" csv:"code"`
	Name        string   `json:"name" csv:"name"`
	Description string   `json:"description,omitempty" csv:"description"`
	Permissions []string `json:"permissions,omitempty" csv:"-"`
}

// RoleInput creates or updates a role.
type RoleInput struct {
	Code        string   `json:"code" validate:"required,code,max=64"`
	Name        string   `json:"name" validate:"required,max=128"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=512"`
	Permissions []string `json:"permissions,omitempty"`
}

// User is an operator account.
type User struct {
	ID        string   `json:"id" csv:"id"`
	Username  string   `json:"username" csv:"username"`
	Email     string   `json:"email" csv:"email"`
	FullName  string   `json:"fullName,omitempty" csv:"full_name"`
	Birthdate string   `json:"birthdate,omitempty" csv:"birthdate"`
	Roles     []string `json:"roles,omitempty" csv:"-"`
	Active    bool     `json:"active" csv:"active"`
}

// UserInput registers a user.
type UserInput struct {
	Username  string `json:"username" validate:"required,min=3,max=32"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,strongpassword"`
	FullName  string `json:"fullName,omitempty" validate:"omitempty,max=128"`
	Birthdate string `json:"birthdate,omitempty" validate:"omitempty,datetime=2006-01-02,minage=18"`
}

// Task states.
const (
	TaskCreated   = "created"
	TaskAssigned  = "assigned"
	TaskDelegated = "delegated"
	TaskCompleted = "completed"
)

// Task is a human task of a running process instance.
type Task struct {
	ID                   string     `json:"id" csv:"id"`
	Name                 string     `json:"name" csv:"name"`
	Description          string     `json:"description,omitempty" csv:"description"`
	ProcessInstanceID    string     `json:"processInstanceId" csv:"process_instance_id"`
	ProcessDefinitionKey string     `json:"processDefinitionKey,omitempty" csv:"process_definition_key"`
	Assignee             string     `json:"assignee,omitempty" csv:"assignee"`
	CandidateGroups      []string   `json:"candidateGroups,omitempty" csv:"-"`
	State                string     `json:"state" csv:"state"`
	Priority             int        `json:"priority" csv:"priority"`
	Created              time.Time  `json:"created" csv:"created"`
	Due                  *time.Time `json:"due,omitempty" csv:"-"`
}

// TaskFilter narrows a task listing. Empty fields are ignored.
type TaskFilter struct {
	Assignee          string
	CandidateGroup    string
	ProcessInstanceID string
	State             string `validate:"omitempty,oneof=created assigned delegated completed"`
}

// LoginResult is the data of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
