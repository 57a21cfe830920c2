package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchrecord/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) GameJob {
	return GameJob{Key: model.GameKey{Season: "S5", GameID: id}, Era: 5, Regular: true}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with room for two games", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("When two games are enqueued", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("2")), ShouldBeTrue)

			Convey("Then a third is rejected without blocking", func() {
				So(q.Enqueue(ctx, job("3")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then they dequeue in order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).Key.GameID, ShouldEqual, "1")
				So((<-ch).Key.GameID, ShouldEqual, "2")
			})

			Convey("Then Put waits for room", func() {
				done := make(chan error, 1)
				go func() { done <- q.Put(ctx, job("3")) }()

				select {
				case <-done:
					So("put returned early", ShouldBeEmpty)
				case <-time.After(20 * time.Millisecond):
				}

				ch := q.Dequeue(ctx)
				<-ch
				So(<-done, ShouldBeNil)
			})

			Convey("Then Put gives up when the context ends", func() {
				cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
				defer cancel()
				err := q.Put(cctx, job("3"))
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})

			Convey("Then closing releases a blocked Put", func() {
				done := make(chan error, 1)
				go func() { done <- q.Put(ctx, job("3")) }()
				time.Sleep(10 * time.Millisecond)
				So(q.Close(), ShouldBeNil)
				So(errors.Is(<-done, ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new games are refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("2")), ShouldBeFalse)
				So(errors.Is(q.Put(ctx, job("2")), ErrClosed), ShouldBeTrue)
			})

			Convey("Then queued games still drain and the channel closes", func() {
				ch := q.Dequeue(ctx)
				j, ok := <-ch
				So(ok, ShouldBeTrue)
				So(j.Key.GameID, ShouldEqual, "1")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given many producers", t, func() {
		q := NewInMemoryQueue(WithCapacity(8))
		const producers, perProducer = 4, 25

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					_ = q.Put(ctx, job(fmt.Sprintf("%d-%d", p, i)))
				}
			}(p)
		}

		seen := make(map[string]bool)
		ch := q.Dequeue(ctx)
		for len(seen) < producers*perProducer {
			seen[(<-ch).Key.GameID] = true
		}
		wg.Wait()

		Convey("Then every game arrives exactly once", func() {
			So(len(seen), ShouldEqual, producers*perProducer)
			So(q.Len(ctx), ShouldEqual, 0)
		})
	})
}

func TestGameJobEraPlays(t *testing.T) {
	Convey("Given a job whose plays partly lack an era", t, func() {
		plays := []model.PlateAppearance{{Era: 0}, {Era: 3}, {Era: 0}}
		j := GameJob{Era: 9, Plays: plays}

		Convey("Then the job era fills only the blanks", func() {
			out := j.EraPlays()
			So(out[0].Era, ShouldEqual, 9)
			So(out[1].Era, ShouldEqual, 3)
			So(out[2].Era, ShouldEqual, 9)
		})

		Convey("Then the caller's plays are left alone", func() {
			j.EraPlays()
			So(plays[0].Era, ShouldEqual, 0)
		})
	})

	Convey("Given a job without an era", t, func() {
		plays := []model.PlateAppearance{{Era: 0}}
		So(GameJob{Plays: plays}.EraPlays()[0].Era, ShouldEqual, 0)
	})
}
