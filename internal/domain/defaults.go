package domain

// DefaultServiceIcon is used when a service is created without an icon.
const DefaultServiceIcon = "💅"

// Seed is the initial content written into a fresh store.
type Seed struct {
	Settings Settings
	Blocks   []Block
	Services []Service
}

// DefaultSeed returns the stock content of a new site. passwordHash becomes
// the initial admin password hash.
func DefaultSeed(passwordHash string) Seed {
	return Seed{
		Settings: DefaultSettings(passwordHash),
		Blocks:   DefaultBlocks(),
		Services: DefaultServices(),
	}
}

// DefaultSettings returns the stock profile without an ID.
func DefaultSettings(passwordHash string) Settings {
	return Settings{
		MasterName:        "Анна Петрова",
		MasterPhone:       "+7 (950) 123-45-67",
		MasterSignature:   "Мастер маникюра и nail-дизайна",
		MasterDescription: "Создаю красивые и здоровые ногти уже более 5 лет. Индивидуальный подход к каждому клиенту.",
		ExperienceYears:   ptr("5+"),
		ExperienceText:    ptr("лет опыта"),
		SatisfiedClients:  ptr("500+"),
		ClientsText:       ptr("довольных клиентов"),
		Copyright:         ptr("© 2024 Все права защищены"),
		AdminPassword:     passwordHash,
	}
}

// DefaultBlocks returns the four stock sections, ordered 0 to 3.
func DefaultBlocks() []Block {
	return []Block{
		{
			Type:    BlockAbout,
			Enabled: true,
			Title:   "Обо мне",
			Order:   0,
			Body: AboutBody{
				Content: ptr("Меня зовут Анна, и я занимаюсь nail-индустрией уже более 5 лет. Моя страсть — создавать красивые и здоровые ногти, которые подчеркивают индивидуальность каждой клиентки."),
				Stats: []Stat{
					{Label: "5+", Value: "лет опыта"},
					{Label: "500+", Value: "довольных клиентов"},
				},
			},
		},
		{
			Type:    BlockServices,
			Enabled: true,
			Title:   "Мои услуги",
			Order:   1,
			Body:    SectionBody{Content: ptr("Профессиональный уход за ногтями с использованием качественных материалов")},
		},
		{
			Type:    BlockReviews,
			Enabled: true,
			Title:   "Отзывы клиентов",
			Order:   2,
			Body:    SectionBody{Content: ptr("Что говорят о моей работе довольные клиентки")},
		},
		{
			Type:    BlockContacts,
			Enabled: true,
			Title:   "Контакты",
			Order:   3,
			Body:    ContactsBody{Content: ptr("Свяжитесь со мной для записи на маникюр")},
		},
	}
}

// DefaultServices returns the three stock services.
func DefaultServices() []Service {
	return []Service{
		{Name: "Классический маникюр", Description: "Базовый уход за ногтями и кутикулой", Price: "1500", Icon: ptr("💅")},
		{Name: "Покрытие гель-лаком", Description: "Долговременное покрытие с дизайном", Price: "2500", Icon: ptr("✨")},
		{Name: "Наращивание ногтей", Description: "Создание идеальной формы и длины", Price: "3500", Icon: ptr("🌟")},
	}
}

func ptr(s string) *string { return &s }
