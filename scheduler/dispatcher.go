package scheduler

import (
	"context"
	"fmt"
	"time"

	domainAccount "github.com/AzielCF/fedisched/domains/account"
	domainPost "github.com/AzielCF/fedisched/domains/post"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/platforms"
	"github.com/sirupsen/logrus"
)

// Dispatcher performs exactly one delivery attempt for a claimed post and
// applies the resulting state transition. Re-attempts happen only through a
// later scheduler tick.
type Dispatcher struct {
	store    domainPost.IPostRepository
	resolver domainAccount.ICredentialResolver
	registry *platforms.Registry
	policy   RetryPolicy

	// retryHold is how far a claim is pushed out when no real attempt could
	// be made (configuration defect); defaults to the poll interval so the
	// loop does not hot-spin on a broken registration.
	retryHold time.Duration

	now func() time.Time
}

func NewDispatcher(
	store domainPost.IPostRepository,
	resolver domainAccount.ICredentialResolver,
	registry *platforms.Registry,
	policy RetryPolicy,
	retryHold time.Duration,
) *Dispatcher {
	return &Dispatcher{
		store:     store,
		resolver:  resolver,
		registry:  registry,
		policy:    policy,
		retryHold: retryHold,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch delivers one claimed (publishing-state) post.
func (d *Dispatcher) Dispatch(ctx context.Context, p domainPost.ScheduledPost) error {
	log := logrus.WithField("post_id", p.ID)

	kind, cred, err := d.resolver.ResolveCredential(ctx, p.AccountID)
	if err != nil {
		if pkgError.IsCredentialInvalid(err) || pkgError.IsNotFound(err) {
			// Retrying cannot fix a revoked credential or a deleted account.
			return d.fail(ctx, p, err)
		}
		return d.handleFailure(ctx, p, err)
	}

	client, err := d.registry.Resolve(kind)
	if err != nil {
		// Configuration defect, not a delivery failure: no client was ever
		// registered for this kind. Release the claim untouched so the post
		// neither burns retry budget nor records a user-facing error.
		log.WithError(err).Error("[Dispatcher] unregistered platform kind; releasing claim")
		if releaseErr := d.store.ReleaseClaim(ctx, p.ID, d.now().Add(d.retryHold)); releaseErr != nil {
			log.WithError(releaseErr).Error("[Dispatcher] failed to release claim")
		}
		return err
	}

	externalID, err := client.Publish(ctx, cred, p.Content)
	if err != nil {
		return d.handleFailure(ctx, p, err)
	}

	if err := d.store.MarkPublished(ctx, p.ID, externalID, d.now()); err != nil {
		return fmt.Errorf("post %s delivered but could not be marked published: %w", p.ID, err)
	}
	log.Infof("[Dispatcher] post published to %s as %s", kind, externalID)
	return nil
}

// handleFailure applies the retry policy to a failed attempt.
func (d *Dispatcher) handleFailure(ctx context.Context, p domainPost.ScheduledPost, cause error) error {
	if platforms.IsTerminal(cause) {
		return d.fail(ctx, p, cause)
	}

	attempt := p.AttemptCount + 1
	decision := d.policy.Decide(attempt)
	if !decision.Retry {
		return d.fail(ctx, p, cause)
	}

	nextAttemptAt := d.now().Add(decision.Delay)
	if err := d.store.RescheduleRetry(ctx, p.ID, attempt, nextAttemptAt, cause.Error()); err != nil {
		return fmt.Errorf("failed to reschedule post %s: %w", p.ID, err)
	}
	logrus.WithField("post_id", p.ID).Warnf(
		"[Dispatcher] attempt %d failed, retrying in %s: %v", attempt, decision.Delay, cause)
	return nil
}

func (d *Dispatcher) fail(ctx context.Context, p domainPost.ScheduledPost, cause error) error {
	attempt := p.AttemptCount + 1
	if err := d.store.MarkFailed(ctx, p.ID, attempt, cause.Error()); err != nil {
		return fmt.Errorf("failed to mark post %s failed: %w", p.ID, err)
	}
	logrus.WithField("post_id", p.ID).Errorf(
		"[Dispatcher] post failed permanently after %d attempt(s): %v", attempt, cause)
	return nil
}
