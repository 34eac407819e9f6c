// Package service groups the application use cases. Each subpackage owns
// one area and coordinates domain objects with the repositories defined in
// internal/store:
//
//   - transaction: using and canceling account balance, with an audit
//     record written for every attempt
//   - account: registering users and opening, closing and listing accounts
//
// Services receive their dependencies through constructor injection and
// depend on store interfaces only, never on a specific backend.
package service
