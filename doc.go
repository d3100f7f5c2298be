// Package miniftp implements a small passive-mode FTP client.
//
// # Overview
//
// A Client owns one control connection that carries CRLF-terminated commands
// and "DDD text" replies, one at a time. Listing, download and upload each
// negotiate a fresh data connection with PASV, stream through it in fixed-size
// chunks, close it, and only then read the final reply on the control channel.
//
// Supported commands: USER, PASS, LIST, RETR, STOR, MKD, RMD, RNFR, RNTO,
// DELE, PWD, CWD, NOOP, PASV and QUIT. Active mode, TLS, multi-line replies
// and resumed transfers are not supported. A multi-line reply is read as
// separate single-line replies, so servers that send them may be misparsed.
//
// # Basic Usage
//
//	client, err := miniftp.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
//
//	if _, err := client.Login("username", "password"); err != nil {
//	    log.Fatal(err)
//	}
//
//	listing, err := client.List("/pub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range miniftp.ParseListing(listing) {
//	    fmt.Println(e.Type, e.Size, e.Name)
//	}
//
// New returns a client without connecting, for callers that want to control
// when the control channel is opened:
//
//	client, _ := miniftp.New("ftp.example.com", miniftp.WithTimeout(10*time.Second))
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// Failures are reported with typed errors: ConnectError, ProtocolError,
// AuthError, TransferError, UnsupportedModeError, TimeoutError and
// ErrNotConnected. Use errors.As to inspect them:
//
//	if err := client.Store("file.txt", reader); err != nil {
//	    var te *miniftp.TransferError
//	    if errors.As(err, &te) {
//	        fmt.Printf("Command: %s, code %d\n", te.Command, te.Code)
//	    }
//	}
//
// After a TimeoutError, or a TransferError raised while streaming, the final
// reply of the transfer is still pending on the control channel and the client
// should be discarded.
package miniftp
