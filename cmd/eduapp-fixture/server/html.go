package server

import "html/template"

// Template names.
const (
	registerPage     = "register"
	loginPage        = "login"
	dashboardPage    = "dashboard"
	newCoursePage    = "new-course"
	coursesPage      = "courses"
	courseDetailPage = "course-detail"
)

// pages mirrors the markup contract of the EduApp React client: element ids,
// button labels, confirmation text and the Tailwind classes the smoke suite
// selects on. Custom selects render their options on open, like the Radix
// portal the client uses.
var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>EduApp</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; }
  nav { display: flex; gap: 1rem; padding: 1rem; background: #1e293b; }
  nav a { color: #f8fafc; text-decoration: none; }
  main { padding: 2rem; max-width: 60rem; }
  label, input, textarea, button { display: block; margin: .25rem 0; }
  .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 1rem; }
  .bg-gray-100 { background: #f3f4f6; padding: 1rem; border-radius: .5rem; cursor: pointer; }
  [role=listbox] { border: 1px solid #cbd5e1; background: #fff; }
  [role=option] { padding: .25rem .5rem; cursor: pointer; }
  [role=alert] { color: #b91c1c; }
  .alert-success { color: #15803d; }
</style>
<script>
function showMessage(text, ok) {
  const box = document.getElementById('messages');
  if (!box) return;
  box.replaceChildren();
  const div = document.createElement('div');
  if (ok) {
    div.className = 'alert-success';
  } else {
    div.setAttribute('role', 'alert');
  }
  div.textContent = text;
  box.appendChild(div);
}
async function postJSON(url, body) {
  const res = await fetch(url, {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    credentials: 'same-origin',
    body: JSON.stringify(body)
  });
  const data = await res.json().catch(() => ({}));
  return { res, data };
}
</script>
</head>
<body>
<nav><a href="/courses">Courses</a><a href="/login">Login</a><a href="/register">Register</a><a href="/logout">Logout</a></nav>
<main>
{{end}}

{{define "foot"}}
</main>
</body>
</html>
{{end}}

{{define "register"}}{{template "head"}}
<h1>Create Account</h1>
<form id="register-form">
  <label for="username">Full Name</label>
  <input id="username" name="username" required>
  <label for="email">Email</label>
  <input id="email" name="email" type="email" required>
  <label for="phone">Phone</label>
  <input id="phone" name="phone" type="tel" required>
  <label for="password">Password</label>
  <input id="password" name="password" type="password" required>
  <label for="confirmPassword">Confirm Password</label>
  <input id="confirmPassword" name="confirmPassword" type="password" required>
  <button type="submit">Register</button>
</form>
<div id="messages"></div>
<script>
document.getElementById('register-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const v = (id) => document.getElementById(id).value;
  if (v('password') !== v('confirmPassword')) {
    showMessage('Passwords do not match', false);
    return;
  }
  const { res, data } = await postJSON('/api/user/register', {
    username: v('username'), email: v('email'), phone: v('phone'), password: v('password')
  });
  if (res.ok) {
    showMessage('Registration successful! Welcome aboard.', true);
  } else {
    showMessage('Registration failed: ' + (data.message || res.status), false);
  }
});
</script>
{{template "foot"}}
{{end}}

{{define "login"}}{{template "head"}}
<h1>Login</h1>
<form id="login-form">
  <label for="email">Email</label>
  <input id="email" name="email" type="email" required>
  <label for="password">Password</label>
  <input id="password" name="password" type="password" required>
  <button type="submit">Login</button>
</form>
<div id="messages"></div>
<script>
document.getElementById('login-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const { res, data } = await postJSON('/api/user/login', {
    email: document.getElementById('email').value,
    password: document.getElementById('password').value
  });
  if (!res.ok) {
    showMessage(data.message || 'Login failed. Please check your credentials.', false);
    return;
  }
  window.location.href = data.user.role === 'ADMIN' ? '/admin' : '/student';
});
</script>
{{template "foot"}}
{{end}}

{{define "dashboard"}}{{template "head"}}
<h1>{{.Heading}}</h1>
<p>Signed in as {{.User.Email}}</p>
{{template "foot"}}
{{end}}

{{define "new-course"}}{{template "head"}}
<h1>Create New Course</h1>
<form id="course-form">
  <label for="title">Course Title</label>
  <input id="title" name="title" required>
  <label for="description">Description</label>
  <textarea id="description" name="description"></textarea>
  <label for="category">Category</label>
  <button type="button" id="category" data-select="category">Select category</button>
  <label for="level">Difficulty Level</label>
  <button type="button" id="level" data-select="level">Select level</button>
  <fieldset>
    <legend>Publication Status</legend>
    <input type="radio" name="status" id="draft" value="DRAFT" checked><label for="draft">Draft</label>
    <input type="radio" name="status" id="published" value="PUBLISHED"><label for="published">Published</label>
  </fieldset>
  <button type="submit">Create Course</button>
</form>
<div id="messages"></div>
<script>
const options = {
  category: [['SCIENCE', 'Science'], ['PROGRAMMING', 'Programming'], ['MATH', 'Mathematics'], ['ART', 'Art & Design'], ['BUSINESS', 'Business']],
  level: [['BEGINNER', 'Beginner'], ['INTERMEDIATE', 'Intermediate'], ['ADVANCED', 'Advanced']]
};
const selected = { category: '', level: '' };

document.querySelectorAll('[data-select]').forEach((trigger) => {
  trigger.addEventListener('click', () => {
    document.querySelectorAll('[role=listbox]').forEach((l) => l.remove());
    const field = trigger.dataset.select;
    const list = document.createElement('div');
    list.setAttribute('role', 'listbox');
    for (const [value, label] of options[field]) {
      const opt = document.createElement('div');
      opt.setAttribute('role', 'option');
      opt.textContent = label;
      opt.addEventListener('click', () => {
        selected[field] = value;
        trigger.textContent = label;
        list.remove();
      });
      list.appendChild(opt);
    }
    trigger.after(list);
  });
});

document.getElementById('course-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  if (!selected.category) {
    showMessage('Please select a category', false);
    return;
  }
  if (!selected.level) {
    showMessage('Please select a difficulty level', false);
    return;
  }
  const { res, data } = await postJSON('/api/course', {
    title: document.getElementById('title').value,
    description: document.getElementById('description').value,
    category: selected.category,
    level: selected.level,
    publicationStatus: document.querySelector('input[name=status]:checked').value
  });
  if (res.ok) {
    showMessage('Course created successfully!', true);
  } else {
    showMessage(data.message || 'Failed to create course', false);
  }
});
</script>
{{template "foot"}}
{{end}}

{{define "courses"}}{{template "head"}}
<h1>Explore Courses</h1>
<div class="grid grid-cols-3 gap-4">
{{range .}}  <div class="bg-gray-100 rounded-lg p-4" data-href="/courses/{{.ID}}" onclick="window.location.href = this.dataset.href">
    <h2>{{.Title}}</h2>
    <p>{{.Description}}</p>
    <span>{{.Level}}</span>
  </div>
{{end}}</div>
{{template "foot"}}
{{end}}

{{define "course-detail"}}{{template "head"}}
<h1>{{.Course.Title}}</h1>
<p>{{.Course.Description}}</p>
<button type="button" id="enroll" data-course-id="{{.Course.ID}}">{{if .Enrolled}}Continue Learning{{else}}Enroll Now{{end}}</button>
<div id="messages"></div>
<script>
const btn = document.getElementById('enroll');
btn.addEventListener('click', async () => {
  if (btn.textContent.startsWith('Continue')) return;
  const { res, data } = await postJSON('/api/enrollment', { courseId: Number(btn.dataset.courseId) });
  if (res.status === 401) {
    window.location.href = '/login';
    return;
  }
  if (res.ok) {
    btn.textContent = 'Continue Learning';
    showMessage('Enrolled successfully!', true);
  } else {
    showMessage(data.message || 'Enrollment failed', false);
  }
});
</script>
{{template "foot"}}
{{end}}
`))
