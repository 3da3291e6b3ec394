package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/argus/internal/domain"
)

func TestPlanRetention(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	maxAgeDays := 7

	Convey("Given a listing around the retention boundary", t, func() {
		cutoff := now.AddDate(0, 0, -maxAgeDays)

		exactlyAtCutoff := domain.ArtifactName("pgsql-dev", cutoff)
		justOver := domain.ArtifactName("pgsql-dev", cutoff.Add(-time.Second))
		fresh := domain.ArtifactName("pgsql-dev", now.AddDate(0, 0, -1))

		listing := []domain.RemoteFile{
			{Name: exactlyAtCutoff},
			{Name: justOver},
			{Name: fresh},
		}

		Convey("Only artifacts strictly older than the window are deleted", func() {
			decision := PlanRetention("ftp-offsite", listing, now, maxAgeDays)

			So(decision.Delete, ShouldResemble, []string{justOver})
			So(decision.Keep, ShouldContain, exactlyAtCutoff)
			So(decision.Keep, ShouldContain, fresh)
		})

		Convey("An already pruned listing yields an empty decision", func() {
			decision := PlanRetention("ftp-offsite", []domain.RemoteFile{
				{Name: exactlyAtCutoff}, {Name: fresh},
			}, now, maxAgeDays)

			So(decision.Delete, ShouldBeEmpty)
			So(decision.Keep, ShouldHaveLength, 2)
		})

		Convey("An empty listing yields an empty decision", func() {
			decision := PlanRetention("ftp-offsite", nil, now, maxAgeDays)

			So(decision.Delete, ShouldBeEmpty)
			So(decision.Keep, ShouldBeEmpty)
		})
	})

	Convey("Given names that do not carry a parseable timestamp", t, func() {
		listing := []domain.RemoteFile{
			{Name: "handmade-backup.tar.gz", ModTime: now.AddDate(0, 0, -30)},
			{Name: "another.tar.gz", ModTime: now.AddDate(0, 0, -1)},
		}

		Convey("The target-reported modification time decides", func() {
			decision := PlanRetention("local", listing, now, maxAgeDays)

			So(decision.Delete, ShouldResemble, []string{"handmade-backup.tar.gz"})
			So(decision.Keep, ShouldResemble, []string{"another.tar.gz"})
		})
	})

	Convey("Given unrelated files in the directory", t, func() {
		listing := []domain.RemoteFile{
			{Name: RunLogName, ModTime: now.AddDate(0, 0, -365)},
			{Name: "notes.txt", ModTime: now.AddDate(0, 0, -365)},
			{Name: domain.ArtifactName("pgsql-dev", now.AddDate(0, 0, -30))},
		}

		Convey("Only backup artifacts are subject to retention", func() {
			decision := PlanRetention("local", listing, now, maxAgeDays)

			So(decision.Delete, ShouldHaveLength, 1)
			So(decision.Delete[0], ShouldStartWith, "pgsql-dev_")
			So(decision.Keep, ShouldBeEmpty)
		})
	})
}

func TestApplyRetention(t *testing.T) {
	ctx := context.Background()

	Convey("Given a decision with several deletions", t, func() {
		Convey("Every name is deleted", func() {
			target := &fakeTarget{id: "ftp-offsite", files: []domain.RemoteFile{
				{Name: "a.tar.gz"}, {Name: "b.tar.gz"}, {Name: "c.tar.gz"},
			}}
			decision := RetentionDecision{
				TargetID: "ftp-offsite",
				Delete:   []string{"a.tar.gz", "b.tar.gz"},
				Keep:     []string{"c.tar.gz"},
			}

			deleted, failed := ApplyRetention(ctx, target, decision, nopLogger{})

			So(deleted, ShouldEqual, 2)
			So(failed, ShouldEqual, 0)
			So(target.deleted, ShouldResemble, []string{"a.tar.gz", "b.tar.gz"})
		})

		Convey("One failed deletion never stops the rest", func() {
			target := &fakeTarget{
				id:        "ftp-offsite",
				deleteErr: map[string]error{"a.tar.gz": errors.New("550 permission denied")},
			}
			decision := RetentionDecision{
				TargetID: "ftp-offsite",
				Delete:   []string{"a.tar.gz", "b.tar.gz"},
			}

			deleted, failed := ApplyRetention(ctx, target, decision, nopLogger{})

			So(deleted, ShouldEqual, 1)
			So(failed, ShouldEqual, 1)
			So(target.deleted, ShouldResemble, []string{"b.tar.gz"})
		})
	})
}
