package notify

import (
	"errors"
	"testing"
)

func TestNotifier_Send(t *testing.T) {
	var sent []string
	n := New(true, nil)
	n.send = func(title, message string) error {
		sent = append(sent, title+": "+message)
		return errors.New("no notification daemon")
	}

	n.Send("asistr", "Registro exportado")
	if len(sent) != 1 || sent[0] != "asistr: Registro exportado" {
		t.Errorf("sent = %v", sent)
	}

	n.Enabled = false
	n.Send("asistr", "ignored")
	if len(sent) != 1 {
		t.Errorf("disabled notifier sent %v", sent)
	}

	var nilNotifier *Notifier
	nilNotifier.Send("asistr", "ignored")
}
