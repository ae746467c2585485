package deploy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// scpSend speaks the source side of the SCP protocol for one file. w is the
// remote "scp -t" stdin and r its stdout. Content is written in chunks of the
// host page size and progress is called after every chunk.
func scpSend(w io.Writer, r io.Reader, name string, mode os.FileMode, size int64, content io.Reader, progress func(n int)) error {
	acks := bufio.NewReader(r)
	if err := readAck(acks); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "C%04o %d %s\n", mode.Perm(), size, name); err != nil {
		return fmt.Errorf("scp: sending header: %w", err)
	}
	if err := readAck(acks); err != nil {
		return err
	}

	buf := make([]byte, os.Getpagesize())
	var sent int64
	for {
		n, err := content.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("scp: sending %s: %w", name, werr)
			}
			sent += int64(n)
			if progress != nil {
				progress(n)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("scp: reading %s: %w", name, err)
		}
	}
	if sent != size {
		return fmt.Errorf("scp: %s changed while sending: sent %d of %d bytes", name, sent, size)
	}

	if _, err := w.Write([]byte{0}); err != nil {
		return fmt.Errorf("scp: finishing %s: %w", name, err)
	}
	return readAck(acks)
}

// readAck reads one response byte. Zero is success; anything else is
// followed by a message line.
func readAck(r *bufio.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("scp: reading acknowledgement: %w", err)
	}
	if b == 0 {
		return nil
	}

	msg, _ := r.ReadString('\n')
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = fmt.Sprintf("remote returned %d", b)
	}
	return fmt.Errorf("scp: %s", msg)
}
