package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/hackingtorch/hackingtorch/config"
)

// EmailService отправляет транзакционные письма через SMTP.
// Реализует интерфейс Mailer из auth_service.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<h2>Добро пожаловать в HackingTorch, {{.FirstName}}!</h2>
<p>Аккаунт создан. Теперь можно регистрироваться на события,
собирать команду и отправлять проекты.</p>
<p><a href="{{.DashboardLink}}">Перейти в личный кабинет</a></p>
`))

var passwordResetTemplate = template.Must(template.New("reset").Parse(`
<h2>Сброс пароля</h2>
<p>Мы получили запрос на сброс пароля для {{.Email}}.</p>
<p><a href="{{.ResetLink}}">Задать новый пароль</a></p>
<p>Ссылка действует один час. Если вы не запрашивали сброс,
просто проигнорируйте это письмо.</p>
`))

func (s *EmailService) SendWelcomeEmail(email, firstName string) error {
	body, err := renderEmailBody(welcomeTemplate, struct {
		FirstName     string
		DashboardLink string
	}{
		FirstName:     firstName,
		DashboardLink: s.cfg.PublicURL + "/dashboard",
	})
	if err != nil {
		return err
	}
	return s.sendEmail([]string{email}, "Добро пожаловать в HackingTorch!", body)
}

func (s *EmailService) SendPasswordResetEmail(email, resetToken string) error {
	body, err := renderEmailBody(passwordResetTemplate, struct {
		Email     string
		ResetLink string
	}{
		Email:     email,
		ResetLink: fmt.Sprintf("%s/auth/reset-password?token=%s", s.cfg.PublicURL, resetToken),
	})
	if err != nil {
		return err
	}
	return s.sendEmail([]string{email}, "Сброс пароля HackingTorch", body)
}

func renderEmailBody(t *template.Template, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона письма: %w", err)
	}
	return body.String(), nil
}

func (s *EmailService) sendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}
