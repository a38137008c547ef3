// Package domain holds the core types and collaborator interfaces.
//
// Repositories, the credential verifier, and the notification channel senders
// are defined here as interfaces so the realtime, matching, and job layers
// depend on contracts rather than on concrete adapters.
package domain
