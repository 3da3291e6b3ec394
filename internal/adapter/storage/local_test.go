package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStorage(t *testing.T) {
	Convey("Given a local backup directory", t, func() {
		tempDir, err := os.MkdirTemp("", "local_storage_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		Convey("NewLocal", func() {
			Convey("When creating with an existing path", func() {
				local, err := NewLocal(tempDir)

				Convey("It should create successfully", func() {
					So(err, ShouldBeNil)
					So(local, ShouldNotBeNil)
					So(local.basePath, ShouldEqual, tempDir)
					So(local.ID(), ShouldEqual, "local")
					So(local.Kind(), ShouldEqual, "local")
				})
			})

			Convey("When creating with a non-existent path", func() {
				newPath := filepath.Join(tempDir, "new", "nested", "dir")
				local, err := NewLocal(newPath)

				Convey("It should create the directory and succeed", func() {
					So(err, ShouldBeNil)
					So(local, ShouldNotBeNil)

					info, err := os.Stat(newPath)
					So(err, ShouldBeNil)
					So(info.IsDir(), ShouldBeTrue)
				})
			})
		})

		Convey("Store method", func() {
			local, _ := NewLocal(tempDir)
			ctx := context.Background()

			Convey("When storing a valid file", func() {
				sourceFile := filepath.Join(tempDir, "source.tar.gz")
				os.WriteFile(sourceFile, []byte("archive bytes"), 0644)

				err := local.Store(ctx, sourceFile, "stored.tar.gz")

				Convey("It should copy the file under the given name", func() {
					So(err, ShouldBeNil)

					content, err := os.ReadFile(filepath.Join(tempDir, "stored.tar.gz"))
					So(err, ShouldBeNil)
					So(string(content), ShouldEqual, "archive bytes")
				})
			})

			Convey("When source and destination are the same file", func() {
				sourceFile := filepath.Join(tempDir, "same.tar.gz")
				os.WriteFile(sourceFile, []byte("archive bytes"), 0644)

				err := local.Store(ctx, sourceFile, "same.tar.gz")

				Convey("It should be a no-op instead of truncating the file", func() {
					So(err, ShouldBeNil)

					content, err := os.ReadFile(sourceFile)
					So(err, ShouldBeNil)
					So(string(content), ShouldEqual, "archive bytes")
				})
			})

			Convey("When the source file does not exist", func() {
				err := local.Store(ctx, "nonexistent.tar.gz", "stored.tar.gz")

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to open source")
				})
			})
		})

		Convey("List method", func() {
			local, _ := NewLocal(tempDir)
			ctx := context.Background()

			Convey("When the directory has files", func() {
				os.WriteFile(filepath.Join(tempDir, "a_20240101120000.tar.gz"), []byte("x"), 0644)
				os.WriteFile(filepath.Join(tempDir, "b_20240102120000.tar.gz"), []byte("xy"), 0644)
				os.Mkdir(filepath.Join(tempDir, "subdir"), 0755)

				files, err := local.List(ctx)

				Convey("It should list only files, with size and mod time", func() {
					So(err, ShouldBeNil)
					So(files, ShouldHaveLength, 2)

					names := []string{files[0].Name, files[1].Name}
					So(names, ShouldContain, "a_20240101120000.tar.gz")
					So(names, ShouldContain, "b_20240102120000.tar.gz")
					So(names, ShouldNotContain, "subdir")

					for _, f := range files {
						So(f.Size, ShouldBeGreaterThan, 0)
						So(f.ModTime, ShouldHappenWithin, time.Minute, time.Now())
					}
				})
			})

			Convey("When the directory is empty", func() {
				emptyDir := filepath.Join(tempDir, "empty")
				os.Mkdir(emptyDir, 0755)
				local, _ := NewLocal(emptyDir)

				files, err := local.List(ctx)

				Convey("It should return an empty list", func() {
					So(err, ShouldBeNil)
					So(files, ShouldBeEmpty)
				})
			})
		})

		Convey("Delete method", func() {
			local, _ := NewLocal(tempDir)
			ctx := context.Background()

			Convey("When deleting an existing file", func() {
				testFile := "delete_me.tar.gz"
				os.WriteFile(filepath.Join(tempDir, testFile), []byte("x"), 0644)

				err := local.Delete(ctx, testFile)

				Convey("It should delete successfully", func() {
					So(err, ShouldBeNil)

					_, err := os.Stat(filepath.Join(tempDir, testFile))
					So(os.IsNotExist(err), ShouldBeTrue)
				})
			})

			Convey("When deleting a non-existent file", func() {
				err := local.Delete(ctx, "nonexistent.tar.gz")

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to delete file")
				})
			})
		})

		Convey("Path method", func() {
			local, _ := NewLocal(tempDir)

			Convey("When resolving a file name", func() {
				path := local.Path("pgsql-dev_20240101120000.tar.gz")

				Convey("It should return the full path", func() {
					So(path, ShouldEqual, filepath.Join(tempDir, "pgsql-dev_20240101120000.tar.gz"))
				})
			})
		})
	})
}
