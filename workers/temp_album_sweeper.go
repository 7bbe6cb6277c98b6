package workers

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/purplearchive/purple-archive-server/media"
	"github.com/purplearchive/purple-archive-server/repository"
)

// TempAlbumSweeper periodically retires temporary albums that were never
// promoted, removing their backing files from local disk.
type TempAlbumSweeper struct {
	Repo            repository.TempAlbumRepositoryInterface
	TempUploadsPath string
	Interval        time.Duration
	TTL             time.Duration
	StopChan        chan struct{}
	Wg              sync.WaitGroup
}

// NewTempAlbumSweeper creates a sweeper for expired temporary albums.
func NewTempAlbumSweeper(repo repository.TempAlbumRepositoryInterface, tempUploadsPath string, interval, ttl time.Duration) *TempAlbumSweeper {
	return &TempAlbumSweeper{
		Repo:            repo,
		TempUploadsPath: tempUploadsPath,
		Interval:        interval,
		TTL:             ttl,
		StopChan:        make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *TempAlbumSweeper) Start() {
	s.Wg.Add(1)
	go s.run()
	log.Printf("Started temp album sweeper (interval: %s, TTL: %s)", s.Interval, s.TTL)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *TempAlbumSweeper) Stop() {
	log.Println("Stopping temp album sweeper...")
	close(s.StopChan)
	s.Wg.Wait()
	log.Println("Temp album sweeper stopped.")
}

func (s *TempAlbumSweeper) run() {
	defer s.Wg.Done()
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SweepOnce(); err != nil {
				log.Printf("Sweeper: ERROR during sweep: %v", err)
			}
		case <-s.StopChan:
			return
		}
	}
}

// SweepOnce retires every temporary album older than the TTL. A failure on one
// record never aborts the rest of the cycle, and a missing backing file does
// not block the database retirement.
func (s *TempAlbumSweeper) SweepOnce() error {
	cutoff := time.Now().Add(-s.TTL)
	expired, err := s.Repo.ListExpired(cutoff)
	if err != nil {
		return err
	}

	swept := 0
	for _, temp := range expired {
		gifPath := media.GifPath(s.TempUploadsPath, temp.UUID)
		if err := os.Remove(gifPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Sweeper: ERROR removing %s: %v", gifPath, err)
		}

		if err := s.Repo.SoftDelete(temp.UUID); err != nil {
			log.Printf("Sweeper: ERROR retiring temp album %s: %v", temp.UUID, err)
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Printf("Sweeper: retired %d expired temp album(s)", swept)
	}
	return nil
}
