// Package workflow implements the console's use cases on top of the API
// client: authentication, customer, vendor, workgroup, role and user
// administration, and the task inbox.
//
// Every service validates its input before any request leaves the process
// and returns the API's own error (a *client.APIError) otherwise.
package workflow
