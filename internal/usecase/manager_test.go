package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/argus/internal/archive"
	"github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/domain"
)

type fakeNotifier struct {
	err error

	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(ctx context.Context, summary string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.messages = append(f.messages, summary)
	f.mu.Unlock()
	return nil
}

func TestManagerRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a manager over several sources", t, func() {
		local := newTestLocal(t)
		builder := archive.NewBuilder()
		backup := config.BackupConfig{RetentionDays: 7, MaxParallel: 2}

		Convey("Running all sources yields one result per source", func() {
			sources := []domain.Source{
				&fakeSource{id: "pgsql-dev"},
				&fakeSource{id: "docs-main", kind: "mongodb"},
				&fakeSource{id: "shop-db", kind: "mysql"},
			}
			m := NewManager(sources, local, nil, builder, nil, nopLogger{}, backup, 7)

			results := m.RunAll(ctx)

			So(results, ShouldHaveLength, 3)
			for _, r := range results {
				So(r.Status, ShouldEqual, domain.StatusSuccess)
			}
		})

		Convey("Running with no sources configured yields an empty, successful run", func() {
			m := NewManager(nil, local, nil, builder, nil, nopLogger{}, backup, 7)

			results := m.RunAll(ctx)

			So(results, ShouldBeEmpty)
			So(ExitCode(results), ShouldEqual, ExitOK)
		})

		Convey("One poisoned source never takes down its siblings", func() {
			sources := []domain.Source{
				&fakeSource{id: "pgsql-dev"},
				&fakeSource{id: "shop-db", dumpErr: errors.New("access denied")},
				&fakeSource{id: "docs-main"},
			}
			m := NewManager(sources, local, nil, builder, nil, nopLogger{}, backup, 7)

			results := m.RunAll(ctx)

			So(results, ShouldHaveLength, 3)
			byID := make(map[string]domain.Status)
			for _, r := range results {
				byID[r.SourceID] = r.Status
			}
			So(byID["pgsql-dev"], ShouldEqual, domain.StatusSuccess)
			So(byID["shop-db"], ShouldEqual, domain.StatusFailed)
			So(byID["docs-main"], ShouldEqual, domain.StatusSuccess)
		})

		Convey("An unknown source id aborts before any job starts", func() {
			src := &fakeSource{id: "pgsql-dev"}
			m := NewManager([]domain.Source{src}, local, nil, builder, nil, nopLogger{}, backup, 7)

			_, err := m.Run(ctx, "pgsql-dev", "no-such-db")

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown source: no-such-db")

			listing, lerr := local.List(ctx)
			So(lerr, ShouldBeNil)
			So(listing, ShouldBeEmpty)
		})

		Convey("Selecting a subset runs only the named sources", func() {
			sources := []domain.Source{
				&fakeSource{id: "pgsql-dev"},
				&fakeSource{id: "docs-main"},
			}
			m := NewManager(sources, local, nil, builder, nil, nopLogger{}, backup, 7)

			results, err := m.Run(ctx, "docs-main")

			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 1)
			So(results[0].SourceID, ShouldEqual, "docs-main")
		})

		Convey("Parallelism never exceeds the configured limit", func() {
			var inFlight, maxSeen int32
			var sources []domain.Source
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				sources = append(sources, &fakeSource{
					id: id, dumpDelay: 20 * time.Millisecond,
					inFlight: &inFlight, maxSeen: &maxSeen,
				})
			}
			m := NewManager(sources, local, nil, builder, nil, nopLogger{},
				config.BackupConfig{RetentionDays: 7, MaxParallel: 2}, 7)

			results := m.RunAll(ctx)

			So(results, ShouldHaveLength, 5)
			So(maxSeen, ShouldBeLessThanOrEqualTo, 2)
			So(maxSeen, ShouldBeGreaterThan, 0)
		})

		Convey("A run persists the run log in the backup directory", func() {
			m := NewManager([]domain.Source{&fakeSource{id: "pgsql-dev"}},
				local, nil, builder, nil, nopLogger{}, backup, 7)

			m.RunAll(ctx)

			saved, _, err := ReadRunLog(local.Path(RunLogName))
			So(err, ShouldBeNil)
			So(saved, ShouldHaveLength, 1)
			So(saved[0].SourceID, ShouldEqual, "pgsql-dev")
		})

		Convey("A run sends exactly one summary notification", func() {
			notifier := &fakeNotifier{}
			sources := []domain.Source{
				&fakeSource{id: "pgsql-dev"},
				&fakeSource{id: "docs-main"},
			}
			m := NewManager(sources, local, nil, builder, notifier, nopLogger{}, backup, 7)

			m.RunAll(ctx)

			So(notifier.messages, ShouldHaveLength, 1)
			So(notifier.messages[0], ShouldContainSubstring, "2 source(s)")
		})

		Convey("A failing notifier never fails the run", func() {
			notifier := &fakeNotifier{err: errors.New("telegram unreachable")}
			m := NewManager([]domain.Source{&fakeSource{id: "pgsql-dev"}},
				local, nil, builder, notifier, nopLogger{}, backup, 7)

			results := m.RunAll(ctx)

			So(results, ShouldHaveLength, 1)
			So(results[0].Status, ShouldEqual, domain.StatusSuccess)
		})
	})
}

func TestManagerPruneAll(t *testing.T) {
	ctx := context.Background()

	Convey("Given a manager with aged artifacts", t, func() {
		local := newTestLocal(t)
		now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		timeNow = func() time.Time { return now }
		Reset(func() { timeNow = time.Now })

		writeLocal := func(name string) {
			So(os.WriteFile(local.Path(name), []byte("x"), 0644), ShouldBeNil)
		}

		oldName := domain.ArtifactName("pgsql-dev", now.AddDate(0, 0, -10))
		freshName := domain.ArtifactName("pgsql-dev", now.AddDate(0, 0, -1))
		writeLocal(oldName)
		writeLocal(freshName)

		remote := &fakeTarget{id: "ftp-offsite", files: []domain.RemoteFile{
			{Name: oldName, ModTime: now.AddDate(0, 0, -10)},
			{Name: freshName, ModTime: now.AddDate(0, 0, -1)},
		}}
		disabled := &fakeTarget{id: "s3-archive", files: []domain.RemoteFile{
			{Name: oldName, ModTime: now.AddDate(0, 0, -10)},
		}}

		m := NewManager(nil, local,
			[]TargetBinding{
				{ID: "ftp-offsite", Target: remote, Enabled: true},
				{ID: "s3-archive", Target: disabled, Enabled: false},
			},
			archive.NewBuilder(), nil, nopLogger{},
			config.BackupConfig{RetentionDays: 7}, 7)

		Convey("PruneAll deletes only expired artifacts", func() {
			reports := m.PruneAll(ctx)

			So(reports, ShouldHaveLength, 2)
			So(reports[0].TargetID, ShouldEqual, "local")
			So(reports[0].Deleted, ShouldEqual, 1)
			So(reports[0].Kept, ShouldEqual, 1)
			So(reports[1].TargetID, ShouldEqual, "ftp-offsite")
			So(reports[1].Deleted, ShouldEqual, 1)

			_, err := os.Stat(local.Path(freshName))
			So(err, ShouldBeNil)
			_, err = os.Stat(local.Path(oldName))
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("Disabled targets are never pruned", func() {
			m.PruneAll(ctx)
			So(disabled.deleted, ShouldBeEmpty)
		})

		Convey("A second pass deletes nothing", func() {
			m.PruneAll(ctx)
			reports := m.PruneAll(ctx)

			for _, r := range reports {
				So(r.Deleted, ShouldEqual, 0)
				So(r.Failed, ShouldEqual, 0)
			}
		})

		Convey("A listing failure is confined to its target", func() {
			broken := &fakeTarget{id: "gdrive-share", listErr: errors.New("quota exceeded")}
			m := NewManager(nil, local,
				[]TargetBinding{{ID: "gdrive-share", Target: broken, Enabled: true}},
				archive.NewBuilder(), nil, nopLogger{},
				config.BackupConfig{RetentionDays: 7}, 7)

			reports := m.PruneAll(ctx)

			So(reports, ShouldHaveLength, 2)
			So(reports[0].Deleted, ShouldEqual, 1)
			So(reports[1].Failed, ShouldEqual, 1)
		})
	})
}

func TestManagerRestoreAndList(t *testing.T) {
	ctx := context.Background()

	Convey("Given a manager with a completed backup", t, func() {
		local := newTestLocal(t)
		builder := archive.NewBuilder()
		src := &fakeSource{id: "pgsql-dev"}
		m := NewManager([]domain.Source{src}, local, nil, builder, nil, nopLogger{},
			config.BackupConfig{RetentionDays: 7}, 7)

		results := m.RunAll(ctx)
		So(results, ShouldHaveLength, 1)
		artifact := results[0].Artifact
		So(artifact, ShouldNotBeNil)

		Convey("Restore feeds the extracted dump back to the source", func() {
			err := m.Restore(ctx, src, artifact.Path)

			So(err, ShouldBeNil)
			So(src.restored, ShouldEndWith, "pgsql-dev.sql")

			content, rerr := os.ReadFile(src.restored)
			So(rerr, ShouldBeNil)
			So(string(content), ShouldEqual, "-- dump of pgsql-dev")
		})

		Convey("Restoring a missing artifact fails up front", func() {
			err := m.Restore(ctx, src, local.Path("nope.tar.gz"))

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "artifact not found")
		})

		Convey("ListArtifacts skips the run log", func() {
			files, err := m.ListArtifacts(ctx, "")

			So(err, ShouldBeNil)
			So(files, ShouldHaveLength, 1)
			So(files[0].Name, ShouldEqual, artifact.Name)
		})

		Convey("ListArtifacts filters by source id prefix", func() {
			So(os.WriteFile(local.Path("docs-main_20240101120000.tar.gz"), []byte("x"), 0644), ShouldBeNil)

			files, err := m.ListArtifacts(ctx, "docs-main")
			So(err, ShouldBeNil)
			So(files, ShouldHaveLength, 1)
			So(files[0].Name, ShouldStartWith, "docs-main_")

			all, err := m.ListArtifacts(ctx, "")
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 2)
		})
	})
}

func TestManagerCheckConnections(t *testing.T) {
	ctx := context.Background()

	Convey("Given sources and targets in mixed health", t, func() {
		local := newTestLocal(t)
		sources := []domain.Source{
			&fakeSource{id: "pgsql-dev"},
			&fakeSource{id: "shop-db", pingErr: errors.New("connection refused")},
		}
		healthy := &fakeTarget{id: "s3-archive"}
		broken := &fakeTarget{id: "ftp-offsite", listErr: errors.New("530 login incorrect")}

		m := NewManager(sources, local,
			[]TargetBinding{
				{ID: "s3-archive", Target: healthy, Enabled: true},
				{ID: "ftp-offsite", Target: broken, Enabled: true},
				{ID: "gdrive-share", Enabled: false},
			},
			archive.NewBuilder(), nil, nopLogger{},
			config.BackupConfig{RetentionDays: 7}, 7)

		Convey("Every source, the local directory and each enabled target is probed", func() {
			checks := m.CheckConnections(ctx)

			So(checks, ShouldHaveLength, 5)

			byName := make(map[string]error)
			for _, c := range checks {
				byName[c.Name] = c.Err
			}
			So(byName["pgsql-dev"], ShouldBeNil)
			So(byName["shop-db"], ShouldNotBeNil)
			So(byName["local"], ShouldBeNil)
			So(byName["s3-archive"], ShouldBeNil)
			So(byName["ftp-offsite"], ShouldNotBeNil)

			_, probed := byName["gdrive-share"]
			So(probed, ShouldBeFalse)
		})
	})
}
