// Package lectureassist is a client for a lecture transcription service:
// upload a recording, then follow the job until its transcript and summary
// are ready.
//
// The core is the polling [Session] returned by [Client.Watch]. A session
// fetches the job's result immediately, then again after 2s, 3.2s, 5.12s
// and so on, growing by a factor of 1.6 up to a cap of 30s. It reports every
// snapshot and every failed attempt, and stops on its own when the job
// reports COMPLETED or FAILED. Failures never end a session; the owner ends
// it with [Session.Stop] or by cancelling the context passed to Watch.
//
// # Quick Start
//
//	c, _ := lectureassist.NewClient("http://127.0.0.1:5000")
//
//	jobID, err := c.Upload(ctx, "week1.mp3")
//	if err != nil {
//	    return err
//	}
//
//	s, _ := c.Watch(ctx, jobID,
//	    func(snap lectureassist.Snapshot) {
//	        fmt.Println(snap.Status)
//	    },
//	    func(err error) {
//	        log.Printf("attempt failed: %v", err)
//	    },
//	)
//	<-s.Done()
//
// # Dashboard
//
// [LectureAssist] follows many jobs at once and serves a live dashboard with
// a small JSON API and Server-Sent Events. It can watch a drop folder for new
// recordings and remembers unfinished jobs across restarts:
//
//	la, err := lectureassist.New(
//	    lectureassist.WithClient(c),
//	    lectureassist.WithPort(8080),
//	    lectureassist.WithWatchDir("./inbox"),
//	    lectureassist.WithHistory("./lectureassist.db"),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	la.Start(ctx) // blocks until context is cancelled
//
// # Errors
//
// Fetch and upload failures match [ErrNetwork], [ErrServer] or
// [ErrMalformedResponse] with errors.Is. [StatusCode] extracts the HTTP
// status of a server error.
//
// # Thread Safety
//
// [Client], [Session] and [LectureAssist] are safe for concurrent use.
// Callbacks for one session never overlap, but callbacks for different
// sessions may run concurrently.
package lectureassist
